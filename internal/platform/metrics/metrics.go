package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the platform-level Prometheus metrics. Module-specific
// counters live next to their module.
type Metrics struct {
	RequestDurationMs *prometheus.HistogramVec
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deedbook_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, ms float64) {
	m.RequestDurationMs.WithLabelValues(route, method, status).Observe(ms)
}
