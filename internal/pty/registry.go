package pty

import "sync"

// Registry holds at most one active Session. The lock guards only the
// presence of the handle; it is never held while a pump performs I/O.
type Registry struct {
	mu     sync.Mutex
	active *Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Start spawns a new session and stores it as the active one. It fails
// with ErrAlreadyActive if a session is already running, leaving that
// session untouched.
func (r *Registry) Start(id string, argv []string, workDir string, cols, rows uint16) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, ErrAlreadyActive
	}

	sess, err := newSession(id, argv, workDir, cols, rows)
	if err != nil {
		return nil, err
	}

	r.active = sess
	return sess, nil
}

// Active returns the current session, or nil when none is running.
func (r *Registry) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// End removes and closes the active session, returning its id. With no
// active session it is a no-op and returns the empty string.
func (r *Registry) End() (string, error) {
	r.mu.Lock()
	sess := r.active
	r.active = nil
	r.mu.Unlock()

	if sess == nil {
		return "", nil
	}
	return sess.ID(), sess.Close()
}
