package adapter

import (
	"context"
	"fmt"
	"io"

	"github.com/Ning0612/fstools/internal/domain"
)

// Adapter defines the filesystem capabilities the toolkit consumes.
// Paths are passed through as given; implementations do not impose a root.
// All implementations return domain-level errors for consistent handling.
type Adapter interface {
	// List returns the immediate children of a directory
	// Returns domain.ErrNotFound if path doesn't exist
	// Returns domain.ErrNotDirectory if path is a file
	List(ctx context.Context, path string) ([]domain.FileInfo, error)

	// Stat returns metadata for a single path
	// Returns domain.ErrNotFound if path doesn't exist
	Stat(ctx context.Context, path string) (domain.FileInfo, error)

	// Read opens a file for sequential reading
	// Caller is responsible for closing the reader
	// Returns domain.ErrNotFile if path is a directory
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Create creates or truncates a file for writing
	// Caller is responsible for closing the writer
	// The parent directory must exist
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Mkdir creates a single directory; no error if it already exists
	Mkdir(ctx context.Context, path string) error

	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file or empty directory
	Delete(ctx context.Context, path string) error

	// Close releases any resources held by the adapter
	Close() error
}

// Copy streams src into dst, truncating dst. Both handles are closed before
// Copy returns. wrap, when non-nil, decorates the source reader (progress
// tracking). Failures after both handles are open map to domain.ErrWriteFailure.
func Copy(ctx context.Context, a Adapter, src, dst string, wrap func(io.Reader) io.Reader) (int64, error) {
	reader, err := a.Read(ctx, src)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	writer, err := a.Create(ctx, dst)
	if err != nil {
		return 0, err
	}

	var r io.Reader = reader
	if wrap != nil {
		r = wrap(reader)
	}

	n, copyErr := io.Copy(writer, r)
	closeErr := writer.Close()
	if copyErr != nil {
		return n, fmt.Errorf("%w: copy %s to %s: %w", domain.ErrWriteFailure, src, dst, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("%w: close %s: %w", domain.ErrWriteFailure, dst, closeErr)
	}
	return n, nil
}
