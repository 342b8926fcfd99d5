package db

import (
	"context"
	"database/sql"
	"fmt"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.ID == "" {
		session.ID = NewID()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = nowUTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, started_at, cwd, shell)
VALUES (?, ?, ?, ?)
`, session.ID, formatTimestamp(session.StartedAt), session.Cwd, session.Shell)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// End sets ended_at for an open session. A session that already has an
// end timestamp keeps it; ended_at is written exactly once.
func (r *SessionRepo) End(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL
`, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to end session %q: %w", id, err)
	}
	return nil
}

// Delete removes a session row. It exists only to roll back a row
// whose PTY never spawned; recorded sessions are never deleted.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %q: %w", id, err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	var endedAtRaw sql.NullString
	var startedAtRaw string

	err := r.db.QueryRowContext(ctx, `
SELECT id, started_at, ended_at, cwd, shell
FROM sessions
WHERE id = ?
`, id).Scan(&s.ID, &startedAtRaw, &endedAtRaw, &s.Cwd, &s.Shell)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %q: %w", id, err)
	}

	s.StartedAt, err = parseTimestamp(startedAtRaw)
	if err != nil {
		return nil, err
	}
	if endedAtRaw.Valid {
		s.EndedAt, err = parseTimestamp(endedAtRaw.String)
		if err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// Recent returns up to limit sessions, most recently started first.
func (r *SessionRepo) Recent(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, started_at, ended_at, cwd, shell
FROM sessions
ORDER BY started_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		var s Session
		var endedAtRaw sql.NullString
		var startedAtRaw string
		if err := rows.Scan(&s.ID, &startedAtRaw, &endedAtRaw, &s.Cwd, &s.Shell); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartedAt, err = parseTimestamp(startedAtRaw)
		if err != nil {
			return nil, err
		}
		if endedAtRaw.Valid {
			s.EndedAt, err = parseTimestamp(endedAtRaw.String)
			if err != nil {
				return nil, err
			}
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating sessions: %w", err)
	}

	return sessions, nil
}
