package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedbook/internal/property/models"
	id "deedbook/pkg/domain"
	"deedbook/pkg/platform/sentinel"
)

func insertProperty(t *testing.T, ledger *InMemoryLedger, owner id.AccountID) *models.Property {
	t.Helper()
	ctx := context.Background()

	propertyID, err := ledger.Allocate(ctx)
	require.NoError(t, err)

	property, err := models.New(propertyID, owner, models.Draft{Title: "Test", Price: 100}, time.Now())
	require.NoError(t, err)
	require.NoError(t, ledger.Insert(ctx, property))
	return property
}

func TestInMemoryLedger_Allocate(t *testing.T) {
	ledger := NewInMemoryLedger()
	ctx := context.Background()

	t.Run("ids are dense and start at one", func(t *testing.T) {
		for want := uint64(1); want <= 5; want++ {
			propertyID, err := ledger.Allocate(ctx)
			require.NoError(t, err)
			assert.Equal(t, id.PropertyID(want), propertyID)
		}
	})

	t.Run("allocation is unique under concurrency", func(t *testing.T) {
		const n = 100
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[id.PropertyID]bool)
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				propertyID, err := ledger.Allocate(ctx)
				assert.NoError(t, err)
				mu.Lock()
				ids[propertyID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, ids, n)
	})
}

func TestInMemoryLedger_Insert(t *testing.T) {
	ledger := NewInMemoryLedger()
	ctx := context.Background()

	property := insertProperty(t, ledger, "alice")

	t.Run("find returns the stored record", func(t *testing.T) {
		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, property.ID, found.ID)
		assert.Equal(t, id.AccountID("alice"), found.Owner)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := ledger.Insert(ctx, property)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := ledger.FindByID(ctx, 999)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("stored record does not alias the caller's", func(t *testing.T) {
		property.Title = "mutated after insert"
		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test", found.Title)
	})
}

func TestInMemoryLedger_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("applies mutation when check passes", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		property := insertProperty(t, ledger, "alice")

		updated, err := ledger.Execute(ctx, property.ID,
			func(p *models.Property) error { return p.CanList("alice") },
			func(p *models.Property) { p.ApplyListing(500, time.Now()) },
		)
		require.NoError(t, err)
		assert.True(t, updated.IsListed)

		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.True(t, found.IsListed)
		assert.Equal(t, uint64(500), found.Price)
	})

	t.Run("failed check leaves the record untouched", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		property := insertProperty(t, ledger, "alice")
		checkErr := errors.New("precondition failed")

		_, err := ledger.Execute(ctx, property.ID,
			func(*models.Property) error { return checkErr },
			func(p *models.Property) { p.ApplyListing(500, time.Now()) },
		)
		assert.ErrorIs(t, err, checkErr)

		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.False(t, found.IsListed)
	})

	t.Run("check mutations on the snapshot never persist", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		property := insertProperty(t, ledger, "alice")

		_, err := ledger.Execute(ctx, property.ID,
			func(p *models.Property) error {
				p.Owner = "mallory"
				return errors.New("abort")
			},
			func(*models.Property) {},
		)
		require.Error(t, err)

		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, id.AccountID("alice"), found.Owner)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		_, err := ledger.Execute(ctx, 42,
			func(*models.Property) error { return nil },
			func(*models.Property) {},
		)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("concurrent executes serialize", func(t *testing.T) {
		ledger := NewInMemoryLedger()
		property := insertProperty(t, ledger, "alice")

		// Each goroutine bumps the price by one through the full
		// read-check-apply cycle; any lost update shows in the total.
		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.Execute(ctx, property.ID,
					func(*models.Property) error { return nil },
					func(p *models.Property) { p.Price++ },
				)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		found, err := ledger.FindByID(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+n), found.Price)
	})
}

func TestInMemoryLedger_Listing(t *testing.T) {
	ledger := NewInMemoryLedger()
	ctx := context.Background()

	first := insertProperty(t, ledger, "alice")
	second := insertProperty(t, ledger, "bob")
	third := insertProperty(t, ledger, "alice")

	t.Run("lists all in id order", func(t *testing.T) {
		all, err := ledger.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, first.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)
		assert.Equal(t, third.ID, all[2].ID)
	})

	t.Run("filters by owner", func(t *testing.T) {
		mine, err := ledger.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, first.ID, mine[0].ID)
		assert.Equal(t, third.ID, mine[1].ID)
	})

	t.Run("unknown owner gets an empty slice", func(t *testing.T) {
		none, err := ledger.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("count matches records", func(t *testing.T) {
		count, err := ledger.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}
