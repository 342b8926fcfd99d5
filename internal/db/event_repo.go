package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EventRepo appends and reads the event log. The log is insert-only:
// there are no update or delete operations, and each append is a
// single statement so concurrent callers never need a transaction.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Append(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.ID == "" {
		event.ID = NewID()
	}
	if event.Ts.IsZero() {
		event.Ts = nowUTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO events (id, session_id, ts, kind, data)
VALUES (?, ?, ?, ?, ?)
`, event.ID, event.SessionID, formatTimestamp(event.Ts), event.Kind, event.Data)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// ListBySession returns all events for a session in ascending timestamp
// order; ties keep insertion order.
func (r *EventRepo) ListBySession(ctx context.Context, sessionID string) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, ts, kind, data
FROM events
WHERE session_id = ?
ORDER BY ts ASC, rowid ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var e Event
		var tsRaw string
		if err := rows.Scan(&e.ID, &e.SessionID, &tsRaw, &e.Kind, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Ts, err = parseTimestamp(tsRaw)
		if err != nil {
			return nil, err
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating events: %w", err)
	}

	return events, nil
}
