// Package tempfile creates short-lived files from in-memory or streamed
// content. The caller owns each file and removes it with Close.
package tempfile

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Ning0612/fstools/internal/adapter/local"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/fileinfo"
)

// Prefix starts the name of every temp file
const Prefix = "fstools_"

// File is a temporary file on the host filesystem
type File struct {
	path string
	once sync.Once
	err  error
}

// FromBinary writes data to a new temp file
func FromBinary(data []byte) (*File, error) {
	return FromReader(bytes.NewReader(data))
}

// FromBase64 decodes s and writes the result to a new temp file. s is either
// standard base64 or a data URL ("data:[<type>][;base64],<data>").
func FromBase64(s string) (*File, error) {
	data, err := decode(s)
	if err != nil {
		return nil, err
	}
	return FromBinary(data)
}

// FromReader copies r to a new temp file. A failed copy removes the file.
func FromReader(r io.Reader) (*File, error) {
	f, err := os.CreateTemp("", Prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", domain.ErrWriteFailure, err)
	}

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("%w: write temp file: %w", domain.ErrWriteFailure, err)
	}

	return &File{path: f.Name()}, nil
}

// Path returns the location of the temp file
func (f *File) Path() string {
	return f.path
}

// Info opens the temp file for inspection
func (f *File) Info(ctx context.Context) (*fileinfo.File, error) {
	return fileinfo.Open(ctx, local.New(), f.path)
}

// Close removes the file. Calling it again returns the first result.
func (f *File) Close() error {
	f.once.Do(func() {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			f.err = fmt.Errorf("remove temp file %s: %w", f.path, err)
		}
	})
	return f.err
}

func decode(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		return decodeDataURL(s)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", domain.ErrInvalidArgument, err)
	}
	return data, nil
}

func decodeDataURL(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URL has no payload", domain.ErrInvalidArgument)
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode data URL: %w", domain.ErrInvalidArgument, err)
		}
		return data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode data URL: %w", domain.ErrInvalidArgument, err)
	}
	return []byte(text), nil
}
