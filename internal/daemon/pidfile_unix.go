//go:build !windows

package daemon

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// killProcess asks the watcher to shut down with SIGTERM, which it turns
// into a context cancellation. A process that exited after the liveness
// check reports ErrNotRunning.
func killProcess(pid int) error {
	err := unix.Kill(pid, unix.SIGTERM)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%w (PID %d exited)", ErrNotRunning, pid)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("stop watcher %d: owned by another user: %w", pid, err)
	default:
		return fmt.Errorf("stop watcher %d: %w", pid, err)
	}
}
