package store

import (
	"context"
	"sort"
	"sync"

	"deedbook/internal/property/models"
	id "deedbook/pkg/domain"
	"deedbook/pkg/platform/sentinel"
)

// InMemoryLedger keeps the whole ledger behind a single mutex, which gives
// the global serialized transaction order directly: every operation,
// including reads, is one critical section. It intentionally favors clarity
// over performance.
type InMemoryLedger struct {
	mu      sync.Mutex
	nextID  uint64
	records map[id.PropertyID]*models.Property
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{records: make(map[id.PropertyID]*models.Property)}
}

func (l *InMemoryLedger) Allocate(_ context.Context) (id.PropertyID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return id.PropertyID(l.nextID), nil
}

func (l *InMemoryLedger) Insert(_ context.Context, property *models.Property) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[property.ID]; ok {
		return sentinel.ErrConflict
	}
	l.records[property.ID] = property.Clone()
	return nil
}

func (l *InMemoryLedger) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (l *InMemoryLedger) Execute(_ context.Context, propertyID id.PropertyID, check func(*models.Property) error, apply func(*models.Property)) (*models.Property, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// check receives a copy so a misbehaving callback cannot leave a
	// half-applied record behind on failure.
	if err := check(record.Clone()); err != nil {
		return nil, err
	}
	apply(record)
	return record.Clone(), nil
}

func (l *InMemoryLedger) ListAll(_ context.Context) ([]*models.Property, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Property, 0, len(l.records))
	for _, record := range l.records {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *InMemoryLedger) ListByOwner(_ context.Context, owner id.AccountID) ([]*models.Property, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Property, 0)
	for _, record := range l.records {
		if record.Owner == owner {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *InMemoryLedger) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records), nil
}
