package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PropertiesRegistered prometheus.Counter
	PropertyListings     prometheus.Counter
	PropertySales        prometheus.Counter
	SettlementDurationMs prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		PropertiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedbook_properties_registered_total",
			Help: "Total number of properties registered in the ledger",
		}),
		PropertyListings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedbook_property_listings_total",
			Help: "Total number of listings, including re-listings at a new price",
		}),
		PropertySales: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedbook_property_sales_total",
			Help: "Total number of completed sales",
		}),
		SettlementDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deedbook_settlement_duration_ms",
			Help:    "Latency of settlement calls during purchases in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.PropertiesRegistered.Inc()
}

func (m *Metrics) IncrementListings() {
	m.PropertyListings.Inc()
}

func (m *Metrics) IncrementSales() {
	m.PropertySales.Inc()
}

func (m *Metrics) ObserveSettlementMs(ms float64) {
	m.SettlementDurationMs.Observe(ms)
}
