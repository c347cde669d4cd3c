package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/Ning0612/fstools/internal/domain"
)

// Adapter implements the adapter.Adapter interface for the host filesystem
type Adapter struct{}

// New creates a new local filesystem adapter
func New() *Adapter {
	return &Adapter{}
}

// List returns the immediate children of a directory in the order the
// filesystem yields them
func (a *Adapter) List(ctx context.Context, path string) ([]domain.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, a.mapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", path, domain.ErrNotDirectory)
	}

	dir, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrUnreadable, path, a.mapError(err))
	}
	defer dir.Close()

	// File.ReadDir keeps directory order, unlike os.ReadDir which sorts
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %w", domain.ErrUnreadable, path, a.mapError(err))
	}

	result := make([]domain.FileInfo, 0, len(entries))
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fi, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // Removed between ReadDir and Info
			}
			return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrUnreadable, entry.Name(), a.mapError(err))
		}

		result = append(result, a.fileInfoFromOS(filepath.Join(path, entry.Name()), fi))
	}

	return result, nil
}

// Stat returns metadata for a single path
func (a *Adapter) Stat(ctx context.Context, path string) (domain.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileInfo{}, fmt.Errorf("stat %s: %w", path, a.mapError(err))
	}
	return a.fileInfoFromOS(path, info), nil
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, a.mapError(err))
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: %w", path, domain.ErrNotFile)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrUnreadable, path, a.mapError(err))
	}

	return file, nil
}

// Create creates or truncates a file
func (a *Adapter) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrWriteFailure, path, a.mapError(err))
	}
	return file, nil
}

// Mkdir creates a directory; the parent must exist
func (a *Adapter) Mkdir(ctx context.Context, path string) error {
	err := os.Mkdir(path, 0755)
	if err == nil || os.IsExist(err) {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			return fmt.Errorf("mkdir %s: %w", path, domain.ErrNotDirectory)
		}
		return nil
	}
	return fmt.Errorf("%w: mkdir %s: %w", domain.ErrWriteFailure, path, a.mapError(err))
}

// Exists checks if a path exists
func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, a.mapError(err)
}

// Delete removes a file or empty directory
func (a *Adapter) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, a.mapError(err))
	}
	return nil
}

// Close releases any resources (no-op for local adapter)
func (a *Adapter) Close() error {
	return nil
}

// fileInfoFromOS converts os.FileInfo to domain.FileInfo
func (a *Adapter) fileInfoFromOS(path string, info os.FileInfo) domain.FileInfo {
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

// mapError converts OS errors to domain errors
func (a *Adapter) mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case os.IsNotExist(err):
		return domain.ErrNotFound
	case os.IsPermission(err):
		return domain.ErrPermissionDenied
	case os.IsExist(err):
		return domain.ErrAlreadyExists
	case errors.Is(err, syscall.ENOTDIR):
		return domain.ErrNotDirectory
	case errors.Is(err, syscall.EISDIR):
		return domain.ErrNotFile
	}

	return err
}
