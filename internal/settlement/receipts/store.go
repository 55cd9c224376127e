package receipts

import (
	"context"

	"github.com/google/uuid"

	"deedbook/internal/settlement"
)

// Store persists settlement receipts so a sale can be proven after the fact.
// Implementations are interface-driven to allow swapping in-memory and Redis
// persistence without rewiring the engine.
type Store interface {
	Save(ctx context.Context, receipt *settlement.Receipt) error
	FindByID(ctx context.Context, receiptID uuid.UUID) (*settlement.Receipt, error)
}
