package pty

import (
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	creackpty "github.com/creack/pty"
)

const (
	// readChunkSize is the maximum number of bytes moved per blocking
	// read from the PTY master.
	readChunkSize = 8192

	// outputBacklog and inputBacklog size the pump buffers. The output
	// pump blocks when the backlog is full; writes fail fast instead.
	outputBacklog = 1024
	inputBacklog  = 256
)

// Session wraps a shell running inside a PTY. It owns the PTY master,
// the child process, and the two pump goroutines that bridge the
// blocking PTY streams to non-blocking channel endpoints.
type Session struct {
	id        string
	createdAt time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	out  chan []byte
	in   chan []byte
	done chan struct{}

	pumps  sync.WaitGroup
	inDead atomic.Bool

	mu        sync.Mutex
	closed    bool
	cols      uint16
	rows      uint16
	closeOnce sync.Once
	closeErr  error
}

// newSession spawns the shell and launches both pumps. The session is
// live once this returns.
func newSession(id string, argv []string, workDir string, cols, rows uint16) (*Session, error) {
	cmd, ptmx, err := spawn(argv, workDir, cols, rows)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:        id,
		createdAt: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		out:       make(chan []byte, outputBacklog),
		in:        make(chan []byte, inputBacklog),
		done:      make(chan struct{}),
		cols:      cols,
		rows:      rows,
	}

	s.pumps.Add(2)
	go s.outputPump()
	go s.inputPump()
	go func() {
		// Reap the child so it does not linger as a zombie.
		_ = cmd.Wait()
	}()

	return s, nil
}

// outputPump moves bytes from the PTY master to the output channel.
// Each chunk is an owned copy, so the channel preserves exact byte
// order read from the PTY. The pump exits on EOF or any read error and
// closes the channel, which the consumer observes as end of stream.
func (s *Session) outputPump() {
	defer s.pumps.Done()
	defer close(s.out)
	for {
		buf := make([]byte, readChunkSize)
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			select {
			case s.out <- buf[:n]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// inputPump drains the input channel into the PTY master. Writes go
// straight through the fd, so a completed Write is already flushed.
// The pump exits when the channel is closed or a write fails.
func (s *Session) inputPump() {
	defer s.pumps.Done()
	for data := range s.in {
		if _, err := s.ptmx.Write(data); err != nil {
			s.inDead.Store(true)
			return
		}
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the time the shell was spawned.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Size returns the current PTY dimensions.
func (s *Session) Size() (cols, rows uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Closed reports whether Close has been called. A dead pump on a
// still-open session is not reported here; reads simply stop yielding
// data and writes fail.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WriteInput enqueues data for the input pump. It never blocks: the
// copy is either accepted in FIFO order or rejected outright.
func (s *Session) WriteInput(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.inDead.Load() {
		return ErrSessionClosed
	}

	buf := append([]byte(nil), data...)
	select {
	case s.in <- buf:
		return nil
	default:
		return ErrInputFull
	}
}

// TryReadOutput polls the output channel without blocking. It returns
// the next chunk in read order, or ok=false when no data is available
// or the output pump has terminated.
func (s *Session) TryReadOutput() ([]byte, bool) {
	select {
	case data, ok := <-s.out:
		if !ok {
			return nil, false
		}
		return data, true
	default:
		return nil, false
	}
}

// Resize changes the PTY window size. Zero dimensions are rejected and
// the current size is left unchanged.
func (s *Session) Resize(cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return ErrInvalidSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if err := creackpty.Setsize(s.ptmx, &creackpty.Winsize{
		Cols: cols,
		Rows: rows,
	}); err != nil {
		return err
	}

	s.cols = cols
	s.rows = rows
	return nil
}

// Close terminates the child (SIGTERM), closes the PTY master and the
// input channel, and waits for both pumps to exit before returning.
// Closing the fd unblocks the output pump's pending read; closing the
// input channel ends the input pump's receive loop. Safe to call more
// than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.in)
		s.mu.Unlock()

		if s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
		}

		s.closeErr = s.ptmx.Close()
		close(s.done)
		s.pumps.Wait()
	})
	return s.closeErr
}
