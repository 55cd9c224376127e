package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"deedbook/internal/property/models"
	id "deedbook/pkg/domain"
	"deedbook/pkg/platform/sentinel"
)

// PostgresLedger persists property records in PostgreSQL. Ids come from a
// dedicated sequence so allocation stays monotonic across instances; Execute
// serializes per record with SELECT ... FOR UPDATE, which is enough because
// the only cross-record invariant is id allocation.
//
// Prices are stored as BIGINT; amounts above the signed 64-bit range are out
// of scope for this store.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the ledger sequence and table when absent. Intended
// for dev mode and integration tests; production deployments run migrations.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE SEQUENCE IF NOT EXISTS property_ids;
		CREATE TABLE IF NOT EXISTS properties (
			id            BIGINT PRIMARY KEY,
			owner_id      TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			category      TEXT NOT NULL DEFAULT '',
			address       TEXT NOT NULL DEFAULT '',
			image_uri     TEXT NOT NULL DEFAULT '',
			price         BIGINT NOT NULL DEFAULT 0,
			is_listed     BOOLEAN NOT NULL DEFAULT FALSE,
			registered_at TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS properties_owner_idx ON properties (owner_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Allocate(ctx context.Context) (id.PropertyID, error) {
	var next int64
	if err := l.pool.QueryRow(ctx, `SELECT nextval('property_ids')`).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate property id: %w", err)
	}
	return id.PropertyID(next), nil
}

func (l *PostgresLedger) Insert(ctx context.Context, property *models.Property) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO properties (id, owner_id, title, description, category, address, image_uri, price, is_listed, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		int64(property.ID), property.Owner.String(), property.Title, property.Description,
		property.Category, property.Address, property.ImageURI, int64(property.Price),
		property.IsListed, property.RegisteredAt, property.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (l *PostgresLedger) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	row := l.pool.QueryRow(ctx, selectProperty+` WHERE id = $1`, int64(propertyID))
	property, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return property, nil
}

func (l *PostgresLedger) Execute(ctx context.Context, propertyID id.PropertyID, check func(*models.Property) error, apply func(*models.Property)) (*models.Property, error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx, selectProperty+` WHERE id = $1 FOR UPDATE`, int64(propertyID))
	property, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock property: %w", err)
	}

	if err := check(property.Clone()); err != nil {
		return nil, err
	}
	apply(property)

	_, err = tx.Exec(ctx, `
		UPDATE properties
		SET owner_id = $2, price = $3, is_listed = $4, updated_at = $5
		WHERE id = $1
	`, int64(property.ID), property.Owner.String(), int64(property.Price), property.IsListed, property.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return property, nil
}

func (l *PostgresLedger) ListAll(ctx context.Context) ([]*models.Property, error) {
	rows, err := l.pool.Query(ctx, selectProperty+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

func (l *PostgresLedger) ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Property, error) {
	rows, err := l.pool.Query(ctx, selectProperty+` WHERE owner_id = $1 ORDER BY id`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list properties by owner: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

func (l *PostgresLedger) Count(ctx context.Context) (int, error) {
	var count int
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return count, nil
}

const selectProperty = `
	SELECT id, owner_id, title, description, category, address, image_uri, price, is_listed, registered_at, updated_at
	FROM properties`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var (
		property models.Property
		recordID int64
		owner    string
		price    int64
	)
	err := row.Scan(&recordID, &owner, &property.Title, &property.Description,
		&property.Category, &property.Address, &property.ImageURI, &price,
		&property.IsListed, &property.RegisteredAt, &property.UpdatedAt)
	if err != nil {
		return nil, err
	}
	property.ID = id.PropertyID(recordID)
	property.Owner = id.AccountID(owner)
	property.Price = uint64(price)
	return &property, nil
}

func collectProperties(rows pgx.Rows) ([]*models.Property, error) {
	out := make([]*models.Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}
