package accesstoken

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"deedbook/internal/transport/http/shared"
	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
)

// DefaultTokenLifetime bounds dev-issued tokens.
const DefaultTokenLifetime = 24 * time.Hour

// Handler exposes development token issuance. Any well-formed account
// name gets a signed token; there is no credential check because account
// identity is self-asserted in this deployment mode.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a token issuance Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the token issuance route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.handleIssueToken)
}

type issueTokenRequest struct {
	Account string `json:"account"`
}

type issueTokenResponse struct {
	Token     string    `json:"token"`
	Account   string    `json:"account"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := id.ParseAccountID(req.Account)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	token, err := h.service.Generate(account, DefaultTokenLifetime)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue token", "error", err.Error())
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, issueTokenResponse{
		Token:     token,
		Account:   account.String(),
		ExpiresAt: time.Now().Add(DefaultTokenLifetime),
	})
}
