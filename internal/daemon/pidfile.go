// Package daemon tracks the watch process through a PID file in the state
// directory.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ning0612/fstools/internal/lock"
)

var (
	// ErrNotRunning is returned when no PID file exists
	ErrNotRunning = errors.New("watcher is not running")

	// ErrAlreadyRunning is returned by Write when a live process owns the file
	ErrAlreadyRunning = errors.New("watcher is already running")
)

// PIDFile manages the watcher process ID file
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager for path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file location
func (p *PIDFile) Path() string {
	return p.path
}

// Write records the current process ID. A file left by a dead process is
// replaced.
func (p *PIDFile) Write() error {
	if pid, err := p.Read(); err == nil {
		if lock.ProcessExists(pid) {
			return fmt.Errorf("%w (PID %d, %s)", ErrAlreadyRunning, pid, p.path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}

	content := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Read returns the recorded PID
func (p *PIDFile) Read() (int, error) {
	content, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %q", pidStr)
	}
	return pid, nil
}

// Remove deletes the PID file
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is alive
func (p *PIDFile) IsRunning() (bool, error) {
	pid, err := p.Read()
	if err != nil {
		return false, err
	}
	return lock.ProcessExists(pid), nil
}

// Status returns the recorded PID and whether it is alive. A missing file
// reports (0, false, nil).
func (p *PIDFile) Status() (int, bool, error) {
	pid, err := p.Read()
	if errors.Is(err, ErrNotRunning) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return pid, lock.ProcessExists(pid), nil
}

// Stop asks the recorded process to terminate
func (p *PIDFile) Stop() error {
	pid, err := p.Read()
	if err != nil {
		return err
	}
	if !lock.ProcessExists(pid) {
		p.Remove()
		return fmt.Errorf("%w (stale PID %d removed)", ErrNotRunning, pid)
	}
	return killProcess(pid)
}
