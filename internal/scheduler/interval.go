package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/logger"
)

// IntervalScheduler runs every configured job on a time.Ticker
type IntervalScheduler struct {
	config Config
	runner JobRunner

	mu          sync.RWMutex
	running     bool
	stopped     bool
	stopOnce    sync.Once
	closeOnce   sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}

	stats struct {
		lastRunTime    time.Time
		nextRunTime    time.Time
		totalRuns      int
		successfulRuns int
		failedRuns     int
		lastError      string
	}
}

// NewIntervalScheduler validates config and creates a scheduler
func NewIntervalScheduler(config Config, runner JobRunner) (*IntervalScheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %v", domain.ErrInvalidArgument, config.Interval)
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: job runner cannot be nil", domain.ErrInvalidArgument)
	}
	if len(config.Jobs) == 0 {
		return nil, fmt.Errorf("%w: no jobs to schedule", domain.ErrInvalidArgument)
	}

	return &IntervalScheduler{
		config:      config,
		runner:      runner,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}, nil
}

// Start begins the scheduling loop. A stopped scheduler cannot be restarted.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}
	if s.stopped {
		return errors.New("scheduler cannot be restarted after stop")
	}

	s.running = true
	s.stats.nextRunTime = time.Now().Add(s.config.Interval)

	go s.run(ctx)
	return nil
}

func (s *IntervalScheduler) run(ctx context.Context) {
	defer s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.running = false
		s.mu.Unlock()
		close(s.stoppedChan)
	})

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.execute(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

// execute runs each job once; one failing job does not skip the rest
func (s *IntervalScheduler) execute(ctx context.Context) {
	log := logger.Get()

	s.mu.Lock()
	s.stats.lastRunTime = time.Now()
	s.stats.totalRuns++
	s.stats.nextRunTime = time.Now().Add(s.config.Interval)
	s.mu.Unlock()

	var errs []error
	for _, job := range s.config.Jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := s.runner.RunJob(ctx, job); err != nil {
			log.Warn("Scheduled job failed", "job", job, "error", err)
			errs = append(errs, fmt.Errorf("job %s: %w", job, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := errors.Join(errs...); err != nil {
		s.stats.failedRuns++
		s.stats.lastError = err.Error()
		return
	}
	s.stats.successfulRuns++
	s.stats.lastError = ""
}

// Stop ends the loop and waits for it to exit
func (s *IntervalScheduler) Stop() error {
	s.mu.RLock()
	if !s.running {
		s.mu.RUnlock()
		return errors.New("scheduler is not running")
	}
	s.mu.RUnlock()

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.stoppedChan
	return nil
}

// Done is closed when the loop exits, by Stop or by context cancellation
func (s *IntervalScheduler) Done() <-chan struct{} {
	return s.stoppedChan
}

// Status returns a snapshot of the run statistics
func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Status{
		Running:        s.running,
		LastRunTime:    s.stats.lastRunTime,
		NextRunTime:    s.stats.nextRunTime,
		TotalRuns:      s.stats.totalRuns,
		SuccessfulRuns: s.stats.successfulRuns,
		FailedRuns:     s.stats.failedRuns,
		LastError:      s.stats.lastError,
	}
}

var _ Scheduler = (*IntervalScheduler)(nil)
