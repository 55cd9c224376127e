package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"deedbook/internal/audit"
	"deedbook/internal/platform/device"
	propertymetrics "deedbook/internal/property/metrics"
	"deedbook/internal/property/models"
	"deedbook/internal/property/store"
	"deedbook/internal/settlement"
	"deedbook/internal/settlement/receipts"
	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
	"deedbook/pkg/platform/sentinel"
	"deedbook/pkg/requestcontext"
)

// AuditPublisher is the sink for marketplace audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the marketplace engine: the four ledger operations plus the
// browse queries, with every invariant check on the mutation path. It keeps
// orchestration out of handlers and domain logic thin.
type Service struct {
	ledger         store.Ledger
	settler        settlement.Settler
	receipts       receipts.Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *propertymetrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *propertymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithReceiptStore(store receipts.Store) Option {
	return func(s *Service) {
		s.receipts = store
	}
}

// New constructs the engine. The ledger and the settler are required; the
// rest is optional wiring.
func New(ledger store.Ledger, settler settlement.Settler, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("property ledger is required")
	}
	if settler == nil {
		return nil, errors.New("settler is required")
	}
	s := &Service{
		ledger:  ledger,
		settler: settler,
		logger:  slog.Default(),
		tracer:  otel.Tracer("deedbook/property"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register allocates the next property id and stores the record under the
// caller's ownership, unlisted. No payment is involved.
func (s *Service) Register(ctx context.Context, caller id.AccountID, draft models.Draft) (*models.Property, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller account is required")
	}

	propertyID, err := s.ledger.Allocate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate property id")
	}
	property, err := models.New(propertyID, caller, draft, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Insert(ctx, property); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Unreachable when the engine is the only allocator; surfaced
			// rather than swallowed so a second writer is noticed.
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "property id already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store property")
	}

	s.emit(ctx, audit.Event{
		Category:   audit.CategoryOperations,
		Type:       audit.EventPropertyRegistered,
		PropertyID: property.ID,
		Actor:      caller,
		Price:      property.Price,
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return property, nil
}

// List puts a property up for sale at the given price. Owner only.
// Re-listing while already listed updates the price.
func (s *Service) List(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, price uint64) (*models.Property, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller account is required")
	}
	if propertyID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "property id is required")
	}

	now := requestcontext.Now(ctx)
	property, err := s.ledger.Execute(ctx, propertyID,
		func(p *models.Property) error {
			return p.CanList(caller)
		},
		func(p *models.Property) {
			p.ApplyListing(price, now)
		},
	)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}

	s.emit(ctx, audit.Event{
		Category:   audit.CategoryOperations,
		Type:       audit.EventPropertyListed,
		PropertyID: property.ID,
		Actor:      caller,
		Price:      price,
	})
	if s.metrics != nil {
		s.metrics.IncrementListings()
	}
	return property, nil
}

// Buy transfers ownership to the caller against payment. Preconditions are
// checked in order: record exists, record is listed, payment covers the
// price. Settlement of exactly the asking price (excess refunded by the
// adapter) happens inside the ledger's critical section, so a failed
// transfer leaves the record untouched and a concurrent reader never sees a
// half-applied sale.
//
// A buyer who already owns the listed record is not special-cased; the
// adapter settles the zero-delta transfer like any other.
func (s *Service) Buy(ctx context.Context, caller id.AccountID, propertyID id.PropertyID, payment uint64) (*models.Property, *settlement.Receipt, error) {
	if caller.IsZero() {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "caller account is required")
	}
	if propertyID.IsZero() {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "property id is required")
	}

	ctx, span := s.tracer.Start(ctx, "property.buy", trace.WithAttributes(
		attribute.Int64("property.id", int64(propertyID)),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		receipt *settlement.Receipt
		seller  id.AccountID
	)
	property, err := s.ledger.Execute(ctx, propertyID,
		func(p *models.Property) error {
			if err := p.CanPurchase(payment); err != nil {
				return err
			}
			settled, err := s.settle(ctx, settlement.TransferRequest{
				From:     caller,
				To:       p.Owner,
				Amount:   p.Price,
				Attached: payment,
			})
			if err != nil {
				return err
			}
			receipt = settled
			seller = p.Owner
			return nil
		},
		func(p *models.Property) {
			p.ApplySale(caller, now)
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, nil, wrapLedgerErr(err)
	}

	if s.receipts != nil {
		if err := s.receipts.Save(ctx, receipt); err != nil {
			// The sale is already final; a lost receipt is an observability
			// gap, not a reason to fail the purchase.
			s.logger.ErrorContext(ctx, "failed to persist settlement receipt",
				"receipt_id", receipt.ID,
				"property_id", property.ID,
				"error", err.Error(),
			)
		}
	}

	s.emit(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		Type:         audit.EventPropertySold,
		PropertyID:   property.ID,
		Actor:        caller,
		Counterparty: seller,
		Price:        receipt.Amount,
		ReceiptID:    receipt.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementSales()
	}
	return property, receipt, nil
}

// Get returns a snapshot of one record.
func (s *Service) Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	if propertyID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "property id is required")
	}
	property, err := s.ledger.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	return property, nil
}

// ListAll returns every record ordered by id.
func (s *Service) ListAll(ctx context.Context) ([]*models.Property, error) {
	properties, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	return properties, nil
}

// ListByOwner returns the records currently owned by owner, ordered by id.
func (s *Service) ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Property, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner account is required")
	}
	properties, err := s.ledger.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties by owner")
	}
	return properties, nil
}

// GetReceipt returns a stored settlement receipt.
func (s *Service) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*settlement.Receipt, error) {
	if s.receipts == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "receipt store not configured")
	}
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "settlement receipt not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receipt")
	}
	return receipt, nil
}

// Stats summarizes the ledger for the admin surface.
type Stats struct {
	Properties int `json:"properties"`
	Listed     int `json:"listed"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.ledger.Count(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count ledger records")
	}
	properties, err := s.ledger.ListAll(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute ledger stats")
	}
	stats := Stats{Properties: count}
	for _, property := range properties {
		if property.IsListed {
			stats.Listed++
		}
	}
	return stats, nil
}

func (s *Service) settle(ctx context.Context, req settlement.TransferRequest) (*settlement.Receipt, error) {
	start := time.Now()
	receipt, err := s.settler.Settle(ctx, req)
	if s.metrics != nil {
		s.metrics.ObserveSettlementMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return nil, dErrors.Wrap(err, dErrors.CodeInsufficientPayment, "buyer cannot cover the attached payment")
		}
		if dErrors.Is(err, dErrors.CodeInvalidInput) || dErrors.Is(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "settlement failed")
	}
	return receipt, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Device = device.Summarize(requestcontext.UserAgent(ctx))
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"event_type", string(event.Type),
			"property_id", event.PropertyID,
			"error", err.Error(),
		)
	}
}

func wrapLedgerErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "property not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger operation failed")
}
