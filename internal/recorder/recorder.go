package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/termrec/internal/db"
	"github.com/user/termrec/internal/pty"
)

// ErrNoSession is returned by per-session operations when no session is
// active.
var ErrNoSession = errors.New("recorder: no active session")

// Service wires the single-session registry to the durable event log
// and exposes the command surface used by the HTTP and websocket
// dispatch layers. Output logging is best-effort; input and lifecycle
// logging failures are surfaced because losing them breaks replay.
type Service struct {
	registry *pty.Registry
	sessions *db.SessionRepo
	events   *db.EventRepo
	commands *db.CommandRepo

	shell   []string
	workDir string
	logger  *slog.Logger
}

// New builds a Service. shell is the argv spawned for every session;
// workDir is its working directory.
func New(registry *pty.Registry, conn *sql.DB, shell []string, workDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		sessions: db.NewSessionRepo(conn),
		events:   db.NewEventRepo(conn),
		commands: db.NewCommandRepo(conn),
		shell:    shell,
		workDir:  workDir,
		logger:   logger,
	}
}

// StartSession spawns the shell in a fresh PTY and records the session.
// The registry rejects the request when a session is already active.
// The session row is written before the handle becomes visible: once
// another caller can see the session, event appends against its id
// must already satisfy the foreign key. A failed spawn rolls the row
// back, so no record of a session that never ran is left behind.
func (s *Service) StartSession(ctx context.Context, cols, rows uint16) (string, error) {
	record := &db.Session{
		Cwd:   s.workDir,
		Shell: shellString(s.shell),
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return "", fmt.Errorf("recorder: failed to record session start: %w", err)
	}

	if _, err := s.registry.Start(record.ID, s.shell, s.workDir, cols, rows); err != nil {
		if delErr := s.sessions.Delete(ctx, record.ID); delErr != nil {
			s.logger.Warn("failed to remove record for failed spawn", "session", record.ID, "error", delErr)
		}
		return "", err
	}

	s.logger.Info("session started", "session", record.ID, "cols", cols, "rows", rows)
	return record.ID, nil
}

// SendInput enqueues keystrokes for the active session and logs the
// chunk as a user_in event. The logging failure is surfaced.
func (s *Service) SendInput(ctx context.Context, data []byte) error {
	sess := s.registry.Active()
	if sess == nil {
		return ErrNoSession
	}

	if err := sess.WriteInput(data); err != nil {
		return err
	}

	event := &db.Event{SessionID: sess.ID(), Kind: db.EventKindInput, Data: string(data)}
	if err := s.events.Append(ctx, event); err != nil {
		return fmt.Errorf("recorder: failed to log input: %w", err)
	}
	return nil
}

// ReadOutput polls the active session for the next output chunk. It
// never blocks; nil data means nothing is pending. Each returned chunk
// is logged as a pty_out event, but a logging failure never interrupts
// the live stream.
func (s *Service) ReadOutput(ctx context.Context) ([]byte, error) {
	sess := s.registry.Active()
	if sess == nil {
		return nil, ErrNoSession
	}

	data, ok := sess.TryReadOutput()
	if !ok {
		return nil, nil
	}

	event := &db.Event{SessionID: sess.ID(), Kind: db.EventKindOutput, Data: string(data)}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to log output event", "session", sess.ID(), "error", err)
	}
	return data, nil
}

// ResizePty changes the active session's PTY dimensions.
func (s *Service) ResizePty(cols, rows uint16) error {
	sess := s.registry.Active()
	if sess == nil {
		return ErrNoSession
	}
	return sess.Resize(cols, rows)
}

// EndSession closes the active session and marks its record ended.
// With no active session it succeeds as a no-op.
func (s *Service) EndSession(ctx context.Context) error {
	id, closeErr := s.registry.End()
	if id == "" {
		return nil
	}
	if closeErr != nil {
		s.logger.Warn("session teardown reported error", "session", id, "error", closeErr)
	}

	if err := s.sessions.End(ctx, id); err != nil {
		return fmt.Errorf("recorder: failed to record session end: %w", err)
	}

	s.logger.Info("session ended", "session", id)
	return nil
}

// RecentSessions lists recorded sessions, most recently started first.
func (s *Service) RecentSessions(ctx context.Context, limit int) ([]*db.Session, error) {
	return s.sessions.Recent(ctx, limit)
}

// SessionEvents returns a session's event log in ascending timestamp
// order.
func (s *Service) SessionEvents(ctx context.Context, sessionID string) ([]*db.Event, error) {
	return s.events.ListBySession(ctx, sessionID)
}

// BeginCommand records the start of a shell command in the active
// session. Reserved for shell-integration hooks.
func (s *Service) BeginCommand(ctx context.Context, input string) (string, error) {
	sess := s.registry.Active()
	if sess == nil {
		return "", ErrNoSession
	}
	return s.commands.Begin(ctx, sess.ID(), input)
}

// EndCommand closes the most recently started open command in the
// active session.
func (s *Service) EndCommand(ctx context.Context, exitCode int64) error {
	sess := s.registry.Active()
	if sess == nil {
		return ErrNoSession
	}
	return s.commands.End(ctx, sess.ID(), exitCode)
}

// SessionCommands lists a session's recorded commands, most recent
// first.
func (s *Service) SessionCommands(ctx context.Context, sessionID string, limit int) ([]*db.Command, error) {
	return s.commands.Recent(ctx, sessionID, limit)
}

// Close ends any active session. Used on shutdown.
func (s *Service) Close(ctx context.Context) error {
	return s.EndSession(ctx)
}

func shellString(argv []string) string {
	return strings.Join(argv, " ")
}
