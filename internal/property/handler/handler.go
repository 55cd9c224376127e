package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deedbook/internal/platform/metrics"
	"deedbook/internal/platform/middleware"
	"deedbook/internal/property/models"
	"deedbook/internal/settlement"
	"deedbook/internal/transport/http/shared"
	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
	"deedbook/pkg/requestcontext"
)

// Service defines the interface for marketplace operations.
type Service interface {
	Register(ctx context.Context, caller id.AccountID, draft models.Draft) (*models.Property, error)
	List(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, price uint64) (*models.Property, error)
	Buy(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, payment uint64) (*models.Property, *settlement.Receipt, error)
	Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListAll(ctx context.Context) ([]*models.Property, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Property, error)
	GetReceipt(ctx context.Context, receiptID uuid.UUID) (*settlement.Receipt, error)
}

// Handler handles the marketplace endpoints. Reads are public; mutations
// require a caller account from the auth middleware.
type Handler struct {
	logger    *slog.Logger
	service   Service
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// New creates a new marketplace Handler.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   m,
		validator: validator,
	}
}

// Register registers the marketplace routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))

	router.Get("/properties", h.handleBrowse)
	router.Get("/properties/{id}", h.handleGetProperty)
	router.Get("/settlements/{id}", h.handleGetReceipt)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.validator, h.logger))
		authed.Post("/properties", h.handleRegisterProperty)
		authed.Post("/properties/{id}/list", h.handleListProperty)
		authed.Post("/properties/{id}/buy", h.handleBuyProperty)
	})

	r.Mount("/", router)
}

func (h *Handler) handleRegisterProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req RegisterPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	property, err := h.service.Register(ctx, caller, models.Draft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Address,
		ImageURI:    req.ImageURI,
		Price:       req.Price,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to register property")
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toPropertyResponse(property))
}

func (h *Handler) handleListProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req ListPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	property, err := h.service.List(ctx, caller, propertyID, req.Price)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list property")
		return
	}

	shared.WriteJSON(w, http.StatusOK, toPropertyResponse(property))
}

func (h *Handler) handleBuyProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req BuyPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	property, receipt, err := h.service.Buy(ctx, caller, propertyID, req.Payment)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to buy property")
		return
	}

	shared.WriteJSON(w, http.StatusOK, PurchaseResponse{
		Property: toPropertyResponse(property),
		Receipt:  toReceiptResponse(receipt),
	})
}

func (h *Handler) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	property, err := h.service.Get(ctx, propertyID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to get property")
		return
	}

	shared.WriteJSON(w, http.StatusOK, toPropertyResponse(property))
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		properties []*models.Property
		err        error
	)
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		var owner id.AccountID
		owner, err = id.ParseAccountID(ownerParam)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		properties, err = h.service.ListByOwner(ctx, owner)
	} else {
		properties, err = h.service.ListAll(ctx)
	}
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to browse properties")
		return
	}

	out := make([]PropertyResponse, 0, len(properties))
	for _, property := range properties {
		out = append(out, toPropertyResponse(property))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	receiptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "receipt id must be a UUID"))
		return
	}

	receipt, err := h.service.GetReceipt(ctx, receiptID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to get receipt")
		return
	}

	shared.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// writeServiceError logs at a severity matching who must act: warn for
// caller-correctable failures, error for internals.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
