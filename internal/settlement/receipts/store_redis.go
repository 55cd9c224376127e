package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"deedbook/internal/settlement"
	"deedbook/pkg/platform/sentinel"
)

const (
	// Redis key prefix for settlement receipts.
	receiptKeyPrefix = "settlement:receipt:"

	// DefaultRetention bounds how long a receipt stays queryable. Sales
	// remain provable through the audit trail after expiry.
	DefaultRetention = 90 * 24 * time.Hour
)

// RedisStore is the production receipt store for deployments where multiple
// instances must share settlement proof.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithRetention overrides the receipt retention TTL.
func WithRetention(retention time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

// NewRedis constructs a Redis-backed receipt store.
func NewRedis(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{client: client, retention: DefaultRetention}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisStore) Save(ctx context.Context, receipt *settlement.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	key := receiptKeyPrefix + receipt.ID.String()
	if err := s.client.Set(ctx, key, payload, s.retention).Err(); err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, receiptID uuid.UUID) (*settlement.Receipt, error) {
	key := receiptKeyPrefix + receiptID.String()
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	var receipt settlement.Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &receipt, nil
}
