// Package synchronizer mirrors a source directory tree into a target tree.
// It is one-way and additive: files are copied when the target copy is
// missing or older, directories are created, and nothing is ever deleted.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/core/diff"
	"github.com/Ning0612/fstools/internal/core/walker"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/progress"
)

// Options configures a Synchronizer. Zero values are usable.
type Options struct {
	// Recorder is called for every file visited (optional)
	Recorder Recorder

	// Comparer decides whether a file is copied. Defaults to diff.NewerComparer.
	Comparer diff.Comparer

	// Excludes are doublestar patterns matched against the slash-separated
	// path relative to the top-level source directory. Matching entries are
	// not copied, not recursed into and not recorded.
	Excludes []string

	// Reporter receives byte progress for each copy (optional)
	Reporter progress.Reporter
}

// Synchronizer mirrors one source directory into one target directory
type Synchronizer struct {
	adapter   adapter.Adapter
	root      string
	sourceDir string
	targetDir string
	opts      Options
}

// New creates a synchronizer. Both directories must already exist.
func New(ctx context.Context, adp adapter.Adapter, sourceDir, targetDir string, opts Options) (*Synchronizer, error) {
	sourceDir = walker.CleanRoot(sourceDir)
	targetDir = walker.CleanRoot(targetDir)

	for _, dir := range []string{sourceDir, targetDir} {
		info, err := adp.Stat(ctx, dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: %w", dir, domain.ErrNotDirectory)
		}
	}

	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: invalid exclude pattern %q", domain.ErrInvalidArgument, pattern)
		}
	}

	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Comparer == nil {
		opts.Comparer = diff.NewNewerComparer()
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.NullReporter{}
	}

	return &Synchronizer{
		adapter:   adp,
		root:      sourceDir,
		sourceDir: sourceDir,
		targetDir: targetDir,
		opts:      opts,
	}, nil
}

// SourceDir returns the directory being mirrored
func (s *Synchronizer) SourceDir() string {
	return s.sourceDir
}

// TargetDir returns the directory receiving the mirror
func (s *Synchronizer) TargetDir() string {
	return s.targetDir
}

// Sync mirrors the immediate entries of the source directory. Directories
// are skipped unless recursive is set, in which case each is created in the
// target and synchronized in turn.
//
// Every visited file produces a SyncEvent whether or not it was copied.
// The first error stops the run; work already done is kept.
func (s *Synchronizer) Sync(ctx context.Context, recursive bool) error {
	w, err := walker.New(ctx, s.adapter, s.sourceDir)
	if err != nil {
		return err
	}

	entries, err := w.List(ctx, false)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.excluded(entry.Path) {
			continue
		}

		target := s.targetPath(entry.Path)

		if entry.IsDir() {
			if !recursive {
				continue
			}
			if err := s.syncDir(ctx, entry, target); err != nil {
				return err
			}
			continue
		}

		if err := s.syncFile(ctx, entry, target); err != nil {
			return err
		}

		event := domain.SyncEvent{Action: domain.ActionCopy, Source: entry.Path, Target: target}
		if err := s.opts.Recorder.Record(event); err != nil {
			return err
		}
	}

	return nil
}

func (s *Synchronizer) syncDir(ctx context.Context, entry domain.Entry, target string) error {
	if err := s.adapter.Mkdir(ctx, target); err != nil {
		return err
	}

	child := &Synchronizer{
		adapter:   s.adapter,
		root:      s.root,
		sourceDir: entry.Path,
		targetDir: target,
		opts:      s.opts,
	}
	return child.Sync(ctx, true)
}

func (s *Synchronizer) syncFile(ctx context.Context, entry domain.Entry, target string) error {
	src := entry.Info()

	var tgt *domain.FileInfo
	info, err := s.adapter.Stat(ctx, target)
	switch {
	case err == nil:
		tgt = &info
	case errors.Is(err, domain.ErrNotFound):
	default:
		return err
	}

	if !s.opts.Comparer.Compare(&src, tgt).NeedsCopy() {
		return nil
	}

	reporter := s.opts.Reporter
	reporter.Start(src.Path, src.Size)
	_, err = adapter.Copy(ctx, s.adapter, src.Path, target, func(r io.Reader) io.Reader {
		return progress.NewProgressReader(r, reporter)
	})
	if err != nil {
		reporter.Error(err)
		return err
	}
	reporter.Complete()
	return nil
}

// targetPath swaps the source directory prefix of path for the target directory
func (s *Synchronizer) targetPath(path string) string {
	return filepath.Join(s.targetDir, relativeTo(s.sourceDir, path))
}

func (s *Synchronizer) excluded(path string) bool {
	if len(s.opts.Excludes) == 0 {
		return false
	}

	rel := filepath.ToSlash(relativeTo(s.root, path))
	for _, pattern := range s.opts.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// relativeTo returns path relative to dir. Entry paths are always below dir,
// so a failure only happens on mixed absolute and relative forms.
func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}
