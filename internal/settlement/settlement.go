// Package settlement abstracts the value-transfer mechanism the marketplace
// engine settles sales through. The engine decides how much must move; the
// adapter owns the actual transfer and the refund of any excess, both in one
// step.
package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
)

//go:generate mockgen -source=settlement.go -destination=mocks/mocks.go -package=mocks Settler

// TransferRequest asks the adapter to move Amount from From to To. Attached
// is the value the buyer handed over; Attached - Amount is refunded to From
// in the same settlement step.
//
// Invariant: Attached >= Amount. The engine checks this before calling.
type TransferRequest struct {
	From     id.AccountID
	To       id.AccountID
	Amount   uint64
	Attached uint64
}

// Receipt records a completed settlement.
type Receipt struct {
	ID        uuid.UUID    `json:"id"`
	From      id.AccountID `json:"from"`
	To        id.AccountID `json:"to"`
	Amount    uint64       `json:"amount"`
	Refund    uint64       `json:"refund"`
	SettledAt time.Time    `json:"settled_at"`
}

// Settler executes synchronous transfers. Either the whole transfer (payment
// plus refund) completes and a receipt is returned, or nothing moves and an
// error comes back; there is no partial settlement.
type Settler interface {
	Settle(ctx context.Context, req TransferRequest) (*Receipt, error)
}

// Validate rejects structurally impossible requests before any balance is
// touched.
func (r TransferRequest) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "settlement parties cannot be empty")
	}
	if r.Attached < r.Amount {
		return dErrors.New(dErrors.CodeInvariantViolation, "attached value below settlement amount")
	}
	return nil
}

// NewReceipt stamps a completed transfer.
func NewReceipt(req TransferRequest, now time.Time) *Receipt {
	return &Receipt{
		ID:        uuid.New(),
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Refund:    req.Attached - req.Amount,
		SettledAt: now,
	}
}
