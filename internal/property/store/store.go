package store

import (
	"context"

	"deedbook/internal/property/models"
	id "deedbook/pkg/domain"
)

// Ledger is the authoritative store of property records. It owns identifier
// allocation and record storage; business validation belongs to the engine
// and the aggregate.
//
// Implementations must provide a total order over operations: no read may
// interleave with another operation's write. The in-memory ledger holds one
// mutex across every call; the Postgres ledger relies on row locks plus the
// id sequence.
type Ledger interface {
	// Allocate returns the next unused property id, starting at 1 and
	// strictly increasing. The internal counter moves exactly once per call.
	Allocate(ctx context.Context) (id.PropertyID, error)

	// Insert stores a new record. Returns sentinel.ErrConflict when the id
	// is already present.
	Insert(ctx context.Context, property *models.Property) error

	// FindByID returns a snapshot copy of the record, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)

	// Execute runs an atomic check-then-apply against one record while the
	// store holds its lock. When check fails the stored record is left
	// exactly as it was; apply runs only after check succeeds. The check
	// callback may call out (settlement) but must treat the record as
	// read-only. Returns the post-apply snapshot, or sentinel.ErrNotFound.
	Execute(ctx context.Context, propertyID id.PropertyID, check func(*models.Property) error, apply func(*models.Property)) (*models.Property, error)

	// ListAll returns snapshots of every record ordered by id.
	ListAll(ctx context.Context) ([]*models.Property, error)

	// ListByOwner returns snapshots of the records currently owned by owner,
	// ordered by id.
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Property, error)

	// Count returns the number of registered properties.
	Count(ctx context.Context) (int, error)
}
