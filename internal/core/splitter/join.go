package splitter

import (
	"context"
	"fmt"
	"io"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/domain"
)

// FindParts returns <dir>/<base>.part0, .part1, ... up to the first missing index
func FindParts(ctx context.Context, adp adapter.Adapter, dir, base string) ([]string, error) {
	var parts []string
	for index := 0; ; index++ {
		path := PartName(dir, base, index)
		ok, err := adp.Exists(ctx, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		parts = append(parts, path)
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts of %s in %s", domain.ErrNotFound, base, dir)
	}
	return parts, nil
}

// Join concatenates parts in the given order into dest, truncating dest.
// It returns the number of bytes written.
func Join(ctx context.Context, adp adapter.Adapter, parts []string, dest string) (int64, error) {
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: no parts to join", domain.ErrInvalidArgument)
	}

	w, err := adp.Create(ctx, dest)
	if err != nil {
		return 0, err
	}

	total, joinErr := appendParts(ctx, adp, w, parts)
	closeErr := w.Close()
	if joinErr != nil {
		return total, joinErr
	}
	if closeErr != nil {
		return total, fmt.Errorf("%w: close %s: %w", domain.ErrWriteFailure, dest, closeErr)
	}
	return total, nil
}

func appendParts(ctx context.Context, adp adapter.Adapter, w io.Writer, parts []string) (int64, error) {
	var total int64
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := appendPart(ctx, adp, w, part)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func appendPart(ctx context.Context, adp adapter.Adapter, w io.Writer, part string) (int64, error) {
	r, err := adp.Read(ctx, part)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	ew := &errWriter{w: w}
	n, err := io.Copy(ew, r)
	if err != nil {
		if ew.err != nil {
			return n, fmt.Errorf("%w: append %s: %w", domain.ErrWriteFailure, part, err)
		}
		return n, fmt.Errorf("%w: read %s: %w", domain.ErrUnreadable, part, err)
	}
	return n, nil
}
