package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event kinds. Marker is reserved for shell-integration hooks and is
// never produced by the recorder itself.
const (
	EventKindOutput = "pty_out"
	EventKindInput  = "user_in"
	EventKindMarker = "marker"
)

// Session is one recorded terminal session. EndedAt is the zero time
// while the session is still open; it is set exactly once.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Cwd       string    `json:"cwd"`
	Shell     string    `json:"shell"`
}

// Event is one recorded input/output chunk. Events are append-only and
// form a non-decreasing timestamp sequence per session.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Ts        time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Data      string    `json:"data"`
}

// Command is one shell command's lifecycle within a session. Start and
// end are millisecond Unix timestamps; EndedAtMs is zero and ExitCode
// nil while the command is still running.
type Command struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	StartedAtMs int64  `json:"started_at_ms"`
	EndedAtMs   int64  `json:"ended_at_ms,omitempty"`
	ExitCode    *int64 `json:"exit_code,omitempty"`
	Input       string `json:"input"`
}

func NewID() string {
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// tsLayout is RFC 3339 with a fixed nine-digit fraction so that stored
// timestamps sort lexicographically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(tsLayout)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}
