package receipts

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"deedbook/internal/settlement"
	"deedbook/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	receipts map[uuid.UUID]*settlement.Receipt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{receipts: make(map[uuid.UUID]*settlement.Receipt)}
}

func (s *InMemoryStore) Save(_ context.Context, receipt *settlement.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *receipt
	s.receipts[receipt.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, receiptID uuid.UUID) (*settlement.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[receiptID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *receipt
	return &copied, nil
}
