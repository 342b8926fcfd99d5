package api

import (
	"errors"
	"net/http"

	"github.com/user/termrec/internal/pty"
	"github.com/user/termrec/internal/recorder"
)

type handler struct {
	svc *recorder.Service
}

// NewRouter exposes the recorder's command surface over HTTP. The live
// session endpoints operate on the single active session; the /sessions
// endpoints read the durable log.
func NewRouter(svc *recorder.Service) http.Handler {
	h := &handler{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", h.startSession)
	mux.HandleFunc("DELETE /api/session", h.endSession)
	mux.HandleFunc("POST /api/session/input", h.sendInput)
	mux.HandleFunc("GET /api/session/output", h.readOutput)
	mux.HandleFunc("POST /api/session/resize", h.resizePty)
	mux.HandleFunc("POST /api/session/command", h.beginCommand)
	mux.HandleFunc("PATCH /api/session/command", h.endCommand)

	mux.HandleFunc("GET /api/sessions", h.recentSessions)
	mux.HandleFunc("GET /api/sessions/{id}/events", h.sessionEvents)
	mux.HandleFunc("GET /api/sessions/{id}/commands", h.sessionCommands)

	mux.HandleFunc("GET /ws", h.stream)

	return mux
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, recorder.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, pty.ErrAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, pty.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.Is(err, pty.ErrSessionClosed), errors.Is(err, pty.ErrInputFull):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
