package audit

import (
	"context"

	id "deedbook/pkg/domain"
)

// Store persists audit events. It is append-only; there is no update or
// delete surface by design of the trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]Event, error)
}
