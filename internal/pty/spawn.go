package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	creackpty "github.com/creack/pty"
)

// spawn allocates a PTY pair and starts the shell attached to its slave
// end. The returned ptmx is the master side; both pumps share it, one
// direction each. A spawn failure is fatal to the start request and is
// never retried.
func spawn(argv []string, workDir string, cols, rows uint16) (*exec.Cmd, *os.File, error) {
	if len(argv) == 0 {
		return nil, nil, errors.New("pty: shell argv must not be empty")
	}
	if cols == 0 || rows == 0 {
		return nil, nil, ErrInvalidSize
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workDir

	ptmx, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pty: failed to spawn %q: %w", argv[0], err)
	}

	return cmd, ptmx, nil
}
