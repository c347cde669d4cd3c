// Package lock provides an inter-process lock file so that only one sync
// runs against a state directory at a time.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ning0612/fstools/internal/domain"
)

const (
	// LockFileName is created inside the lock directory
	LockFileName = ".fstools.lock"

	// DefaultStaleTimeout applies to locks held by another host, whose
	// process cannot be probed
	DefaultStaleTimeout = 30 * time.Minute
)

// Holder describes the process that owns the lock
type Holder struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	Operation string    `json:"operation"`
	Job       string    `json:"job,omitempty"`
}

func (h *Holder) String() string {
	s := fmt.Sprintf("%s by PID %d on %s since %s", h.Operation, h.PID, h.Hostname, h.StartTime.Format(time.RFC3339))
	if h.Job != "" {
		s += ", job " + h.Job
	}
	return s
}

// FileLock is a lock file guarded by O_EXCL creation
type FileLock struct {
	path         string
	staleTimeout time.Duration
	held         *Holder
}

// New creates a lock in dir, creating the directory if needed
func New(dir string) (*FileLock, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: lock directory cannot be empty", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	return &FileLock{
		path:         filepath.Join(dir, LockFileName),
		staleTimeout: DefaultStaleTimeout,
	}, nil
}

// Path returns the lock file location
func (l *FileLock) Path() string {
	return l.path
}

// SetStaleTimeout changes the cross-host staleness window
func (l *FileLock) SetStaleTimeout(d time.Duration) {
	l.staleTimeout = d
}

// Acquire takes the lock for operation (and optionally a job name).
// Acquiring again through the same FileLock only updates the description.
// A live holder yields a *LockError, which matches domain.ErrSyncInProgress.
func (l *FileLock) Acquire(operation, job string) error {
	if l.held != nil {
		if current, err := l.read(); err == nil && l.ownedBy(current) {
			updated := *l.held
			updated.Operation = operation
			updated.Job = job
			if err := l.write(&updated); err != nil {
				return err
			}
			l.held = &updated
			return nil
		}
		l.held = nil
	}

	if existing, err := l.read(); err == nil {
		if !l.isStale(existing) {
			return &LockError{Holder: existing, Reason: "lock is held by another process"}
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale lock: %w", err)
		}
	}

	hostname, _ := os.Hostname()
	holder := &Holder{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		Operation: operation,
		Job:       job,
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			// Lost the race between the check above and the create
			existing, readErr := l.read()
			if readErr != nil {
				return &LockError{Reason: "lock acquired by another process during acquisition"}
			}
			return &LockError{Holder: existing, Reason: "lock acquired by another process during acquisition"}
		}
		return fmt.Errorf("create lock file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	encodeErr := enc.Encode(holder)
	closeErr := file.Close()
	if err := errors.Join(encodeErr, closeErr); err != nil {
		os.Remove(l.path)
		return fmt.Errorf("write lock file: %w", err)
	}

	l.held = holder
	return nil
}

// Release removes the lock file if this FileLock still owns it
func (l *FileLock) Release() error {
	if l.held == nil {
		return nil
	}

	current, err := l.read()
	if err != nil {
		l.held = nil
		return nil
	}
	if !l.ownedBy(current) {
		l.held = nil
		return fmt.Errorf("lock was taken over by another process (%s)", current)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	l.held = nil
	return nil
}

// IsLocked reports whether a live lock exists
func (l *FileLock) IsLocked() bool {
	h, err := l.read()
	return err == nil && !l.isStale(h)
}

// Holder returns the live lock holder. A missing or stale lock yields
// an error wrapping os.ErrNotExist.
func (l *FileLock) Holder() (*Holder, error) {
	h, err := l.read()
	if err != nil {
		return nil, err
	}
	if l.isStale(h) {
		return nil, fmt.Errorf("lock is stale: %w", os.ErrNotExist)
	}
	return h, nil
}

// ForceRelease removes the lock file regardless of its owner. Use only
// when the holder is known to have crashed.
func (l *FileLock) ForceRelease() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("force remove lock: %w", err)
	}
	l.held = nil
	return nil
}

func (l *FileLock) read() (*Holder, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}
	return &h, nil
}

func (l *FileLock) write(h *Holder) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

// isStale is true when the holder's process is gone (same host) or the
// lock has outlived staleTimeout (other host)
func (l *FileLock) isStale(h *Holder) bool {
	hostname, _ := os.Hostname()
	if h.Hostname == hostname {
		return !ProcessExists(h.PID)
	}
	return time.Since(h.StartTime) > l.staleTimeout
}

// ownedBy reports whether h is the record this FileLock wrote
func (l *FileLock) ownedBy(h *Holder) bool {
	if l.held == nil {
		return false
	}
	return h.PID == l.held.PID &&
		h.Hostname == l.held.Hostname &&
		h.StartTime.Equal(l.held.StartTime)
}

// LockError is returned when the lock is held elsewhere
type LockError struct {
	Holder *Holder
	Reason string
}

func (e *LockError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cannot acquire lock: %s (%s)", e.Reason, e.Holder)
	}
	return "cannot acquire lock: " + e.Reason
}

// Is makes errors.Is(err, domain.ErrSyncInProgress) hold for lock contention
func (e *LockError) Is(target error) bool {
	return target == domain.ErrSyncInProgress
}

// IsLockError checks if err is or wraps a *LockError
func IsLockError(err error) bool {
	var le *LockError
	return errors.As(err, &le)
}
