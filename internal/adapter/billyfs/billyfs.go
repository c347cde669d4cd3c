// Package billyfs adapts any go-billy filesystem (osfs, memfs, chroots) to
// the adapter.Adapter interface.
package billyfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/Ning0612/fstools/internal/domain"
)

// Adapter wraps a billy.Filesystem
type Adapter struct {
	fs billy.Filesystem
}

// New creates an adapter over the given billy filesystem
func New(fsys billy.Filesystem) *Adapter {
	return &Adapter{fs: fsys}
}

// NewInMemory creates an adapter backed by a fresh in-memory filesystem
func NewInMemory() *Adapter {
	return New(memfs.New())
}

// NewOS creates an adapter rooted at baseDir on the host filesystem
func NewOS(baseDir string) *Adapter {
	return New(osfs.New(baseDir))
}

// Raw returns the underlying billy filesystem
func (a *Adapter) Raw() billy.Filesystem {
	return a.fs
}

// List returns the immediate children of a directory
func (a *Adapter) List(ctx context.Context, path string) ([]domain.FileInfo, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("billy: list %q: %w", path, mapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("billy: list %q: %w", path, domain.ErrNotDirectory)
	}

	list, err := a.fs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: billy: readdir %q: %w", domain.ErrUnreadable, path, mapError(err))
	}

	result := make([]domain.FileInfo, 0, len(list))
	for _, fi := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result = append(result, a.fileInfo(a.fs.Join(path, fi.Name()), fi))
	}
	return result, nil
}

// Stat returns metadata for a single path
func (a *Adapter) Stat(ctx context.Context, path string) (domain.FileInfo, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return domain.FileInfo{}, fmt.Errorf("billy: stat %q: %w", path, mapError(err))
	}
	return a.fileInfo(path, info), nil
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("billy: read %q: %w", path, mapError(err))
	}
	if info.IsDir() {
		return nil, fmt.Errorf("billy: read %q: %w", path, domain.ErrNotFile)
	}

	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: billy: open %q: %w", domain.ErrUnreadable, path, mapError(err))
	}
	return f, nil
}

// Create creates or truncates a file. The parent directory must exist, which
// memfs would otherwise create implicitly.
func (a *Adapter) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	parent, err := a.fs.Stat(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%w: billy: create %q: %w", domain.ErrWriteFailure, path, mapError(err))
	}
	if !parent.IsDir() {
		return nil, fmt.Errorf("%w: billy: create %q: %w", domain.ErrWriteFailure, path, domain.ErrNotDirectory)
	}

	f, err := a.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: billy: create %q: %w", domain.ErrWriteFailure, path, mapError(err))
	}
	return f, nil
}

// Mkdir creates a directory; no error if it already exists
func (a *Adapter) Mkdir(ctx context.Context, path string) error {
	if info, err := a.fs.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("billy: mkdir %q: %w", path, domain.ErrNotDirectory)
		}
		return nil
	}
	if err := a.fs.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: billy: mkdir %q: %w", domain.ErrWriteFailure, path, mapError(err))
	}
	return nil
}

// Exists checks if a path exists
func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	_, err := a.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("billy: stat %q: %w", path, mapError(err))
	}
}

// Delete removes a file or empty directory
func (a *Adapter) Delete(ctx context.Context, path string) error {
	if err := a.fs.Remove(path); err != nil {
		return fmt.Errorf("billy: remove %q: %w", path, mapError(err))
	}
	return nil
}

// Close is a no-op; billy filesystems hold no process resources
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) fileInfo(path string, info os.FileInfo) domain.FileInfo {
	fileType := domain.FileTypeRegular
	if info.IsDir() {
		fileType = domain.FileTypeDirectory
	}
	return domain.FileInfo{
		Path:    path,
		Name:    info.Name(),
		Type:    fileType,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return domain.ErrNotFound
	case errors.Is(err, os.ErrPermission):
		return domain.ErrPermissionDenied
	case errors.Is(err, os.ErrExist):
		return domain.ErrAlreadyExists
	}
	return err
}
