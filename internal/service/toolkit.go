// Package service wires the core packages to configuration, locking,
// history and logging for the command line.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/adapter/local"
	"github.com/Ning0612/fstools/internal/config"
	"github.com/Ning0612/fstools/internal/core/diff"
	"github.com/Ning0612/fstools/internal/core/splitter"
	"github.com/Ning0612/fstools/internal/core/synchronizer"
	"github.com/Ning0612/fstools/internal/core/walker"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/lock"
	"github.com/Ning0612/fstools/internal/logger"
	"github.com/Ning0612/fstools/internal/progress"
	"github.com/Ning0612/fstools/internal/state"
)

// Operation names stored in the history database
const (
	OpSync  = "sync"
	OpSplit = "split"
	OpJoin  = "join"
)

// Toolkit runs list, search, split, join and sync against one adapter
type Toolkit struct {
	config   *config.Config
	adapter  adapter.Adapter
	lock     *lock.FileLock
	state    *state.Manager
	reporter progress.Reporter
}

// NewToolkit opens the lock and history database under cfg.StateDir.
// A nil adapter means the local filesystem.
func NewToolkit(cfg *config.Config, adp adapter.Adapter) (*Toolkit, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", domain.ErrInvalidArgument)
	}
	if adp == nil {
		adp = local.New()
	}

	fileLock, err := lock.New(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("create file lock: %w", err)
	}

	stateMgr, err := state.NewManager(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	return &Toolkit{
		config:  cfg,
		adapter: adp,
		lock:    fileLock,
		state:   stateMgr,
	}, nil
}

// Config returns the configuration the toolkit was built with
func (t *Toolkit) Config() *config.Config {
	return t.config
}

// SetProgressReporter sets the reporter used by split, join and sync
func (t *Toolkit) SetProgressReporter(reporter progress.Reporter) {
	t.reporter = reporter
}

// List returns the entries of dir, with children when recursive
func (t *Toolkit) List(ctx context.Context, dir string, recursive bool) ([]domain.Entry, error) {
	w, err := walker.New(ctx, t.adapter, dir)
	if err != nil {
		return nil, err
	}
	return w.List(ctx, recursive)
}

// Search returns the files under dir whose path matches glob
func (t *Toolkit) Search(ctx context.Context, dir, glob string, recursive bool) ([]domain.Entry, error) {
	w, err := walker.New(ctx, t.adapter, dir)
	if err != nil {
		return nil, err
	}
	return w.Search(ctx, glob, recursive)
}

// SearchByExtension returns the files under dir ending in .ext
func (t *Toolkit) SearchByExtension(ctx context.Context, dir, ext string, recursive bool) ([]domain.Entry, error) {
	w, err := walker.New(ctx, t.adapter, dir)
	if err != nil {
		return nil, err
	}
	return w.SearchByExtension(ctx, ext, recursive)
}

// SplitRequest describes one split
type SplitRequest struct {
	Source    string
	OutputDir string

	// ChunkSize in bytes; zero uses the configured split.chunk_size
	ChunkSize int64
}

// Split cuts req.Source into part files and records the run
func (t *Toolkit) Split(ctx context.Context, req SplitRequest) ([]domain.Part, error) {
	log := logger.Get().With("operation", OpSplit, "source", req.Source)

	chunk := req.ChunkSize
	if chunk == 0 {
		chunk = int64(t.config.Split.ChunkSize.Bytes())
	}

	exec := state.Execution{Operation: OpSplit, Source: req.Source, Target: req.OutputDir, StartTime: time.Now()}

	s, err := splitter.New(ctx, t.adapter, req.Source, splitter.Options{
		OutputDir: req.OutputDir,
		Reporter:  t.reporter,
	})
	if err != nil {
		t.record(ctx, exec, err)
		return nil, err
	}

	log.Debug("Splitting file", "chunk_size", chunk)
	parts, err := s.Split(ctx, chunk)
	for _, p := range parts {
		exec.Files++
		exec.Bytes += p.Size
	}
	if exec.Target == "" {
		exec.Target = filepath.Dir(s.PartPath(0))
	}
	t.record(ctx, exec, err)
	if err != nil {
		log.Error("Split failed", "parts_written", len(parts), "error", err)
		return parts, err
	}

	log.Info("Split completed", "parts", len(parts), "bytes", exec.Bytes)
	return parts, nil
}

// JoinRequest describes one join. Either Parts or From must be set; From
// names the original file and its parts are discovered next to it.
type JoinRequest struct {
	Dest  string
	Parts []string
	From  string
}

// Join concatenates parts into req.Dest and records the run
func (t *Toolkit) Join(ctx context.Context, req JoinRequest) (int64, error) {
	log := logger.Get().With("operation", OpJoin, "dest", req.Dest)

	exec := state.Execution{Operation: OpJoin, Source: req.From, Target: req.Dest, StartTime: time.Now()}

	parts := req.Parts
	if len(parts) == 0 && req.From != "" {
		found, err := splitter.FindParts(ctx, t.adapter, filepath.Dir(req.From), filepath.Base(req.From))
		if err != nil {
			t.record(ctx, exec, err)
			return 0, err
		}
		parts = found
	}
	if exec.Source == "" && len(parts) > 0 {
		exec.Source = parts[0]
	}

	written, err := splitter.Join(ctx, t.adapter, parts, req.Dest)
	exec.Files = len(parts)
	exec.Bytes = written
	t.record(ctx, exec, err)
	if err != nil {
		log.Error("Join failed", "error", err)
		return written, err
	}

	log.Info("Join completed", "parts", len(parts), "bytes", written)
	return written, nil
}

// SyncRequest describes one sync run
type SyncRequest struct {
	// Job names the configured job, if any; it is recorded in history
	Job string

	Source    string
	Target    string
	Recursive bool
	Excludes  []string

	// Comparer overrides the default newer-than rule (optional)
	Comparer diff.Comparer

	// Recorder receives every sync event (optional)
	Recorder synchronizer.Recorder
}

// SyncResult summarizes a sync run
type SyncResult struct {
	// Files is the number of files visited (one event each)
	Files int

	// Copied is the number of files actually copied
	Copied int

	Bytes    int64
	Duration time.Duration
}

// Sync mirrors req.Source into req.Target while holding the state
// directory lock. Contention fails with an error matching
// domain.ErrSyncInProgress.
func (t *Toolkit) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	log := logger.Get().With("operation", OpSync, "job", req.Job, "source", req.Source, "target", req.Target)

	if req.Source == "" || req.Target == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidArgument)
	}

	if err := t.lock.Acquire(OpSync, req.Job); err != nil {
		log.Warn("Sync lock is held", "error", err)
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer func() {
		if err := t.lock.Release(); err != nil {
			log.Error("Failed to release sync lock", "error", err)
		}
	}()

	start := time.Now()
	counter := progress.NewCounter()
	reporter := progress.Multi(t.reporter, counter)
	result := &SyncResult{}

	recorder := synchronizer.RecorderFunc(func(event domain.SyncEvent) error {
		result.Files++
		log.Debug("File visited", "source", event.Source, "target", event.Target)
		reporter.OverallProgress(counter.Files(), counter.Bytes())
		if req.Recorder != nil {
			return req.Recorder.Record(event)
		}
		return nil
	})

	exec := state.Execution{
		Operation: OpSync,
		Job:       req.Job,
		Source:    req.Source,
		Target:    req.Target,
		StartTime: start,
	}

	log.Info("Sync started", "recursive", req.Recursive)
	s, err := synchronizer.New(ctx, t.adapter, req.Source, req.Target, synchronizer.Options{
		Recorder: recorder,
		Comparer: req.Comparer,
		Excludes: req.Excludes,
		Reporter: reporter,
	})
	if err == nil {
		err = s.Sync(ctx, req.Recursive)
	}

	result.Copied = counter.Files()
	result.Bytes = counter.Bytes()
	result.Duration = time.Since(start)

	exec.Files = result.Files
	exec.Bytes = result.Bytes
	t.record(ctx, exec, err)

	if err != nil {
		log.Error("Sync failed", "files", result.Files, "copied", result.Copied, "error", err)
		return result, err
	}

	log.Info("Sync completed",
		"files", result.Files,
		"copied", result.Copied,
		"bytes", result.Bytes,
		"duration", result.Duration,
	)
	return result, nil
}

// RunJob syncs the configured job name. It satisfies scheduler.JobRunner.
func (t *Toolkit) RunJob(ctx context.Context, name string) error {
	_, err := t.SyncJob(ctx, name, nil)
	return err
}

// SyncJob syncs the configured job name, forwarding events to recorder
func (t *Toolkit) SyncJob(ctx context.Context, name string, recorder synchronizer.Recorder) (*SyncResult, error) {
	job, err := t.config.GetJob(name)
	if err != nil {
		return nil, err
	}
	if !job.Enabled {
		logger.Get().Info("Running disabled job on request", "job", name)
	}

	return t.Sync(ctx, SyncRequest{
		Job:       job.Name,
		Source:    job.Source,
		Target:    job.Target,
		Recursive: job.Recursive,
		Excludes:  job.Exclude,
		Recorder:  recorder,
	})
}

// History returns recorded runs, most recent first
func (t *Toolkit) History(ctx context.Context, q state.Query) ([]state.Execution, error) {
	return t.state.History(ctx, q)
}

// LastSuccess returns the latest successful run of job, or nil
func (t *Toolkit) LastSuccess(ctx context.Context, job string) (*state.Execution, error) {
	return t.state.LastSuccess(ctx, job)
}

// PruneHistory deletes runs that started before cutoff
func (t *Toolkit) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := t.state.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logger.Get().Info("History pruned", "removed", removed, "cutoff", cutoff)
	return removed, nil
}

// LockHolder describes the process currently syncing, if any
func (t *Toolkit) LockHolder() (*lock.Holder, error) {
	return t.lock.Holder()
}

// ForceUnlock removes a lock left behind by a crashed process
func (t *Toolkit) ForceUnlock() error {
	return t.lock.ForceRelease()
}

// record saves exec with a status derived from err. History failures are
// logged, never returned.
func (t *Toolkit) record(ctx context.Context, exec state.Execution, err error) {
	exec.EndTime = time.Now()
	exec.Status = state.StatusSuccess
	if err != nil {
		exec.Status = state.StatusFailed
		exec.Error = err.Error()
	}

	// A cancelled run is still worth recording
	if _, saveErr := t.state.Save(context.WithoutCancel(ctx), exec); saveErr != nil {
		logger.Get().Warn("Failed to record execution", "operation", exec.Operation, "error", saveErr)
	}
}

// Close releases the adapter and the history database
func (t *Toolkit) Close() error {
	return errors.Join(t.adapter.Close(), t.state.Close())
}

var _ io.Closer = (*Toolkit)(nil)
