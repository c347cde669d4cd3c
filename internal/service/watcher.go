package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/fstools/internal/daemon"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/logger"
	"github.com/Ning0612/fstools/internal/scheduler"
	"github.com/Ning0612/fstools/internal/state"
)

// WatchOptions configures a watch run. Zero values fall back to config.
type WatchOptions struct {
	Interval   time.Duration
	Jobs       []string
	RunOnStart bool
}

// WatchStatus reports on the watcher, in this process or another one
type WatchStatus struct {
	// Running is true when the PID file names a live process
	Running bool
	PID     int

	// Scheduler is only set when this process is the watcher
	Scheduler *scheduler.Status

	LastExecution *state.Execution
}

// Watcher re-runs configured jobs on an interval
type Watcher struct {
	mu        sync.RWMutex
	toolkit   *Toolkit
	pidFile   *daemon.PIDFile
	scheduler scheduler.Scheduler
}

// NewWatcher creates a watcher that runs jobs through toolkit
func NewWatcher(toolkit *Toolkit) (*Watcher, error) {
	if toolkit == nil {
		return nil, fmt.Errorf("%w: toolkit cannot be nil", domain.ErrInvalidArgument)
	}
	return &Watcher{
		toolkit: toolkit,
		pidFile: daemon.NewPIDFile(toolkit.Config().PIDPath()),
	}, nil
}

// Start writes the PID file and starts the scheduler in the background
func (w *Watcher) Start(ctx context.Context, opts WatchOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return errors.New("watcher is already running")
	}

	cfg := w.toolkit.Config()
	interval := opts.Interval
	if interval == 0 {
		interval = cfg.Watch.Interval
	}

	jobs := opts.Jobs
	if len(jobs) == 0 {
		for _, j := range cfg.GetEnabledJobs() {
			jobs = append(jobs, j.Name)
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no enabled jobs to watch", domain.ErrJobNotFound)
	}
	for _, name := range jobs {
		if _, err := cfg.GetJob(name); err != nil {
			return err
		}
	}

	sched, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval:   interval,
		Jobs:       jobs,
		RunOnStart: opts.RunOnStart,
	}, w.toolkit)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	if err := w.pidFile.Write(); err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		w.pidFile.Remove()
		return fmt.Errorf("start scheduler: %w", err)
	}

	w.scheduler = sched
	logger.Get().Info("Watcher started", "interval", interval, "jobs", jobs, "pid_file", w.pidFile.Path())
	return nil
}

// Done is closed when the scheduler exits. It is nil before Start.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Done()
}

// Stop halts the scheduler and removes the PID file
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return errors.New("watcher is not running")
	}

	// The loop may already have exited through context cancellation
	select {
	case <-w.scheduler.Done():
	default:
		if err := w.scheduler.Stop(); err != nil {
			return fmt.Errorf("stop scheduler: %w", err)
		}
	}
	w.scheduler = nil

	logger.Get().Info("Watcher stopped")
	return w.pidFile.Remove()
}

// Status reports the watcher state and the most recent run
func (w *Watcher) Status(ctx context.Context) (*WatchStatus, error) {
	pid, running, err := w.pidFile.Status()
	if err != nil {
		return nil, err
	}

	status := &WatchStatus{Running: running, PID: pid}

	w.mu.RLock()
	if w.scheduler != nil {
		status.Scheduler = w.scheduler.Status()
	}
	w.mu.RUnlock()

	history, err := w.toolkit.History(ctx, state.Query{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		status.LastExecution = &history[0]
	}
	return status, nil
}

// StopRemote signals the watcher recorded in the PID file
func (w *Watcher) StopRemote() error {
	return w.pidFile.Stop()
}
