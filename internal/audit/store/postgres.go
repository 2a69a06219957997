package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fatoora/internal/audit"
)

// Postgres persists audit events as an outbox: the event payload is stored
// as JSON, the shipping worker marks rows published after the broker acks.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (event_id, payload, created_at)
		VALUES ($1, $2, $3)`,
		event.ID, payload, event.Timestamp,
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Postgres) FetchUnpublished(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event audit.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Postgres) MarkPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox
		SET published_at = NOW()
		WHERE event_id = ANY($1)`,
		eventIDs,
	); err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
