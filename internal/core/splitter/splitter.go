// Package splitter cuts a file into numbered .partN chunks and joins them back.
package splitter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/progress"
)

const (
	// KB and MB are the binary units used by SplitKB and SplitMB
	KB int64 = 1 << 10
	MB int64 = 1 << 20

	// PartSuffix separates the original name from the part index
	PartSuffix = ".part"

	readBufferSize = 32 * 1024
)

// Options configures a Splitter
type Options struct {
	// OutputDir receives the part files. Empty means the source's directory.
	OutputDir string

	// Reporter receives byte progress while parts are written (optional)
	Reporter progress.Reporter
}

// Splitter cuts one file into fixed-size part files
type Splitter struct {
	adapter adapter.Adapter
	source  domain.FileInfo
	outDir  string
	opts    Options
}

// New creates a splitter for sourceFile, which must exist and be a file
func New(ctx context.Context, adp adapter.Adapter, sourceFile string, opts Options) (*Splitter, error) {
	info, err := adp.Stat(ctx, sourceFile)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", sourceFile, domain.ErrNotFile)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(info.Path)
	}

	return &Splitter{
		adapter: adp,
		source:  info,
		outDir:  outDir,
		opts:    opts,
	}, nil
}

// PartPath returns the path of part index for this splitter's source
func (s *Splitter) PartPath(index int) string {
	return PartName(s.outDir, filepath.Base(s.source.Path), index)
}

// SplitMB splits into parts of n MiB
func (s *Splitter) SplitMB(ctx context.Context, n int64) ([]domain.Part, error) {
	return s.Split(ctx, n*MB)
}

// SplitKB splits into parts of n KiB
func (s *Splitter) SplitKB(ctx context.Context, n int64) ([]domain.Part, error) {
	return s.Split(ctx, n*KB)
}

// Split reads the source sequentially and writes every chunkSize bytes to a
// new part file <name>.part<N>, N counting from zero. All parts except the
// last hold exactly chunkSize bytes; an empty source yields no parts.
//
// A failure stops the split immediately. Parts already written stay on disk.
func (s *Splitter) Split(ctx context.Context, chunkSize int64) ([]domain.Part, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidArgument, chunkSize)
	}

	src, err := s.adapter.Read(ctx, s.source.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	reporter := s.reporter()
	reporter.SetTotal(1, s.source.Size)
	reporter.Start(s.source.Path, s.source.Size)

	reader := bufio.NewReaderSize(progress.NewProgressReader(src, reporter), readBufferSize)

	var parts []domain.Part
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return parts, err
		}

		// A zero-byte read ends the split; no empty trailing part is created
		if _, err := reader.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			reporter.Error(err)
			return parts, fmt.Errorf("%w: read %s: %w", domain.ErrUnreadable, s.source.Path, err)
		}

		part, err := s.writePart(ctx, reader, index, chunkSize)
		if err != nil {
			reporter.Error(err)
			return parts, err
		}
		parts = append(parts, part)
	}

	reporter.Complete()
	return parts, nil
}

// writePart copies up to chunkSize bytes from r into part index
func (s *Splitter) writePart(ctx context.Context, r io.Reader, index int, chunkSize int64) (domain.Part, error) {
	path := s.PartPath(index)

	w, err := s.adapter.Create(ctx, path)
	if err != nil {
		return domain.Part{}, err
	}

	ew := &errWriter{w: w}
	n, copyErr := io.CopyN(ew, r, chunkSize)
	closeErr := w.Close()

	if copyErr != nil && !errors.Is(copyErr, io.EOF) {
		if ew.err != nil {
			return domain.Part{}, fmt.Errorf("%w: write %s: %w", domain.ErrWriteFailure, path, ew.err)
		}
		return domain.Part{}, fmt.Errorf("%w: read %s: %w", domain.ErrUnreadable, s.source.Path, copyErr)
	}
	if closeErr != nil {
		return domain.Part{}, fmt.Errorf("%w: close %s: %w", domain.ErrWriteFailure, path, closeErr)
	}

	return domain.Part{Index: index, Path: path, Size: n}, nil
}

func (s *Splitter) reporter() progress.Reporter {
	if s.opts.Reporter != nil {
		return s.opts.Reporter
	}
	return progress.NullReporter{}
}

// PartName builds <dir>/<base>.part<index>
func PartName(dir, base string, index int) string {
	return filepath.Join(dir, base+PartSuffix+strconv.Itoa(index))
}

// errWriter remembers the first write error so it can be told apart from
// read errors surfacing through io.CopyN
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil && e.err == nil {
		e.err = err
	}
	return n, err
}
