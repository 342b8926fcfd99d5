package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CommandRepo struct {
	db *sql.DB
}

func NewCommandRepo(db *sql.DB) *CommandRepo {
	return &CommandRepo{db: db}
}

// Begin records the start of a shell command and returns its id.
func (r *CommandRepo) Begin(ctx context.Context, sessionID, input string) (string, error) {
	id := NewID()
	startedAt := time.Now().UnixMilli()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO commands (id, session_id, started_at_ms, input)
VALUES (?, ?, ?, ?)
`, id, sessionID, startedAt, input)
	if err != nil {
		return "", fmt.Errorf("failed to begin command: %w", err)
	}

	return id, nil
}

// End closes the most recently started unterminated command for the
// session. With no open command it is a no-op. The lookup and update
// run as one statement, so concurrent loggers cannot interleave.
func (r *CommandRepo) End(ctx context.Context, sessionID string, exitCode int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE commands SET ended_at_ms = ?, exit_code = ?
WHERE id = (
	SELECT id FROM commands
	WHERE session_id = ? AND ended_at_ms IS NULL
	ORDER BY started_at_ms DESC, rowid DESC
	LIMIT 1
)
`, time.Now().UnixMilli(), exitCode, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end command: %w", err)
	}
	return nil
}

// Recent returns up to limit commands for a session, most recently
// started first.
func (r *CommandRepo) Recent(ctx context.Context, sessionID string, limit int) ([]*Command, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, started_at_ms, ended_at_ms, exit_code, input
FROM commands
WHERE session_id = ?
ORDER BY started_at_ms DESC, rowid DESC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	commands := []*Command{}
	for rows.Next() {
		var c Command
		var endedAt, exitCode sql.NullInt64
		if err := rows.Scan(&c.ID, &c.SessionID, &c.StartedAtMs, &endedAt, &exitCode, &c.Input); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		if endedAt.Valid {
			c.EndedAtMs = endedAt.Int64
		}
		if exitCode.Valid {
			code := exitCode.Int64
			c.ExitCode = &code
		}
		commands = append(commands, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating commands: %w", err)
	}

	return commands, nil
}
