package fileinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Ning0612/fstools/internal/domain"
)

const (
	// sniffLimit matches the header size mimetype inspects by default
	sniffLimit = 3072

	octetStream = "application/octet-stream"
)

// MimeType sniffs the content type from the first bytes of the file. When
// the content is empty or unrecognised the extension decides instead.
func (f *File) MimeType(ctx context.Context) (string, error) {
	r, err := f.Open(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()

	header := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrUnreadable, f.info.Path, err)
	}

	return DetectMimeType(header[:n], f.Extension()), nil
}

// DetectMimeType picks a content type for header, falling back to ext
// (without dot) when the header is empty or only matches the generic
// binary type
func DetectMimeType(header []byte, ext string) string {
	if len(header) > 0 {
		detected := mimetype.Detect(header)
		if !detected.Is(octetStream) {
			return detected.String()
		}
	}

	if byExt := MimeTypeByExtension(ext); byExt != "" {
		return byExt
	}
	if len(header) == 0 {
		return mimetype.Detect(header).String()
	}
	return octetStream
}

// MimeTypeByExtension maps an extension (with or without dot) to a MIME
// type, or "" when unknown
func MimeTypeByExtension(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension("." + ext)
}

// ExtensionByMimeType returns the canonical extension (without dot) for a
// MIME type, or "" when unknown
func ExtensionByMimeType(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}

	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(base)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}
