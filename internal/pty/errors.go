package pty

import "errors"

var (
	// ErrAlreadyActive is returned by Registry.Start when a session is
	// already running. The existing session is left untouched.
	ErrAlreadyActive = errors.New("pty: a session is already active")

	// ErrSessionClosed is returned for writes and resizes after the
	// session has been closed or its input pump has died.
	ErrSessionClosed = errors.New("pty: session is closed")

	// ErrInputFull is returned when the input buffer cannot accept more
	// data without blocking the caller.
	ErrInputFull = errors.New("pty: input buffer is full")

	// ErrInvalidSize is returned for zero columns or rows.
	ErrInvalidSize = errors.New("pty: columns and rows must be positive")
)
