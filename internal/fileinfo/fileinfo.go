// Package fileinfo inspects a single file: metadata, content type, hashes
// and encoded forms of its content.
package fileinfo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/core/checksum"
	"github.com/Ning0612/fstools/internal/domain"
)

// TimeLayout formats timestamps in Metadata
const TimeLayout = "2006-01-02 15:04:05"

// File is a regular file reached through an adapter. Metadata is captured
// by Open and not refreshed.
type File struct {
	adapter adapter.Adapter
	info    domain.FileInfo
}

// Open returns the file at path. It fails with ErrNotFound when the path is
// missing and ErrNotFile when it is a directory.
func Open(ctx context.Context, adp adapter.Adapter, path string) (*File, error) {
	info, err := adp.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if !info.IsFile() {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFile)
	}
	return &File{adapter: adp, info: info}, nil
}

// Path returns the path the file was opened with
func (f *File) Path() string { return f.info.Path }

// Name returns the final path element
func (f *File) Name() string { return filepath.Base(f.info.Path) }

// Extension returns the extension without the leading dot, or ""
func (f *File) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.info.Path), ".")
}

// Size returns the size in bytes
func (f *File) Size() int64 { return f.info.Size }

// ModTime returns the last modification time
func (f *File) ModTime() time.Time { return f.info.ModTime }

// Info returns the adapter metadata captured at Open
func (f *File) Info() domain.FileInfo { return f.info }

// Open returns a reader over the file content. The caller must close it.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.adapter.Read(ctx, f.info.Path)
}

// Hash returns the hex digest of the content
func (f *File) Hash(ctx context.Context, algo checksum.Algorithm) (string, error) {
	r, err := f.Open(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return checksum.NewDefaultCalculator().Calculate(ctx, r, algo)
}

// ToBinary reads the whole content into memory
func (f *File) ToBinary(ctx context.Context) ([]byte, error) {
	r, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrUnreadable, f.info.Path, err)
	}
	return data, nil
}

// ToBase64 returns the content in standard base64
func (f *File) ToBase64(ctx context.Context) (string, error) {
	data, err := f.ToBinary(ctx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ToDataURL returns "data:<mime>;base64,<content>"
func (f *File) ToDataURL(ctx context.Context) (string, error) {
	mimeType, err := f.MimeType(ctx)
	if err != nil {
		return "", err
	}
	encoded, err := f.ToBase64(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}

// SameContent reports whether both files have identical SHA-256 digests
func (f *File) SameContent(ctx context.Context, other *File) (bool, error) {
	if f.info.Size != other.info.Size {
		return false, nil
	}

	a, err := f.Hash(ctx, checksum.SHA256)
	if err != nil {
		return false, err
	}
	b, err := other.Hash(ctx, checksum.SHA256)
	if err != nil {
		return false, err
	}
	return a == b, nil
}

// Delete removes the file
func (f *File) Delete(ctx context.Context) error {
	return f.adapter.Delete(ctx, f.info.Path)
}

// Metadata is a flat description of a file, as printed by `fstools info`
type Metadata struct {
	Path         string  `json:"path"`
	Size         int64   `json:"size"`
	SizeKB       float64 `json:"size_in_kb"`
	SizeMB       float64 `json:"size_in_mb"`
	MimeType     string  `json:"mime_type"`
	Extension    string  `json:"extension"`
	Basename     string  `json:"basename"`
	LastModified string  `json:"last_modified"`
}

// Metadata collects the file's descriptive fields. The content is read
// only to sniff the MIME type.
func (f *File) Metadata(ctx context.Context) (Metadata, error) {
	mimeType, err := f.MimeType(ctx)
	if err != nil {
		return Metadata{}, err
	}

	entry := domain.NewEntry(f.info)
	return Metadata{
		Path:         f.info.Path,
		Size:         f.info.Size,
		SizeKB:       entry.SizeKB(),
		SizeMB:       entry.SizeMB(),
		MimeType:     mimeType,
		Extension:    f.Extension(),
		Basename:     f.Name(),
		LastModified: f.info.ModTime.Format(TimeLayout),
	}, nil
}
