// Package scheduler re-runs configured jobs on a fixed interval.
package scheduler

import (
	"context"
	"time"
)

// Scheduler drives periodic job runs
type Scheduler interface {
	// Start begins the scheduling loop in the background
	Start(ctx context.Context) error

	// Stop ends the loop and waits for an in-flight run to finish
	Stop() error

	// Done is closed once the loop has exited
	Done() <-chan struct{}

	// Status returns a snapshot of the run statistics
	Status() *Status
}

// Status is a snapshot of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string
}

// Config contains scheduler configuration
type Config struct {
	// Interval between runs
	Interval time.Duration

	// Jobs run in order on every tick
	Jobs []string

	// RunOnStart triggers a run immediately instead of waiting one interval
	RunOnStart bool
}

// JobRunner executes a named job
type JobRunner interface {
	RunJob(ctx context.Context, name string) error
}

// JobRunnerFunc adapts a function to JobRunner
type JobRunnerFunc func(ctx context.Context, name string) error

func (f JobRunnerFunc) RunJob(ctx context.Context, name string) error {
	return f(ctx, name)
}
