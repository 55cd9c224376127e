package audit

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the postgres driver for database/sql.
	_ "github.com/lib/pq"

	id "deedbook/pkg/domain"
)

// PostgresStore persists the audit trail in PostgreSQL through database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a database/sql handle with the lib/pq driver.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the audit table when absent. Dev mode and integration
// tests; production deployments run migrations.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			seq          BIGSERIAL PRIMARY KEY,
			category     TEXT NOT NULL,
			event_type   TEXT NOT NULL,
			occurred_at  TIMESTAMPTZ NOT NULL,
			property_id  BIGINT NOT NULL,
			actor        TEXT NOT NULL,
			counterparty TEXT NOT NULL DEFAULT '',
			price        BIGINT NOT NULL DEFAULT 0,
			receipt_id   TEXT NOT NULL DEFAULT '',
			request_id   TEXT NOT NULL DEFAULT '',
			device       TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS audit_events_property_idx ON audit_events (property_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (category, event_type, occurred_at, property_id, actor, counterparty, price, receipt_id, request_id, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		string(event.Category), string(event.Type), event.Timestamp, int64(event.PropertyID),
		event.Actor.String(), event.Counterparty.String(), int64(event.Price),
		event.ReceiptID, event.RequestID, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, event_type, occurred_at, property_id, actor, counterparty, price, receipt_id, request_id, device
		FROM audit_events
		WHERE property_id = $1
		ORDER BY seq
	`, int64(propertyID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var (
			event        Event
			category     string
			eventType    string
			recordID     int64
			actor        string
			counterparty string
			price        int64
		)
		err := rows.Scan(&category, &eventType, &event.Timestamp, &recordID,
			&actor, &counterparty, &price, &event.ReceiptID, &event.RequestID, &event.Device)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = EventCategory(category)
		event.Type = EventType(eventType)
		event.PropertyID = id.PropertyID(recordID)
		event.Actor = id.AccountID(actor)
		event.Counterparty = id.AccountID(counterparty)
		event.Price = uint64(price)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
