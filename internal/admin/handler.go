package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deedbook/internal/platform/middleware"
	"deedbook/internal/property/service"
	"deedbook/internal/transport/http/shared"
	dErrors "deedbook/pkg/domain-errors"
)

// StatsProvider reports aggregate ledger counts.
type StatsProvider interface {
	Stats(ctx context.Context) (service.Stats, error)
}

// Handler exposes operator-only endpoints behind the admin token.
type Handler struct {
	logger    *slog.Logger
	stats     StatsProvider
	tokenHash string
}

// New creates an admin Handler. An empty tokenHash disables the routes.
func New(stats StatsProvider, tokenHash string, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, stats: stats, tokenHash: tokenHash}
}

// Register mounts the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.tokenHash))
		admin.Get("/admin/stats", h.handleStats)
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute stats", "error", err.Error())
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}
