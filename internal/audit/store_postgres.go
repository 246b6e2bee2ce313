package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore appends audit events to the audit_events table via
// database/sql. The audit log is append-only; rows are never updated.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a database/sql handle for the audit store.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit database ping failed: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (category, action, actor_id, subject, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(event.Category), string(event.Action), event.ActorID,
		event.Subject, event.Detail, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, action, actor_id, subject, detail, occurred_at
		FROM audit_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var category, action string
		if err := rows.Scan(&category, &action, &e.ActorID, &e.Subject, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = Category(category)
		e.Action = Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
