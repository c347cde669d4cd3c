// Package checksum computes streaming content hashes
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Ning0612/fstools/internal/domain"
)

// Algorithm names a supported hash function
type Algorithm string

const (
	// MD5 is fast and fine for content comparison
	MD5 Algorithm = "md5"
	// SHA256 is the default
	SHA256 Algorithm = "sha256"
	// XXHash is the 64-bit non-cryptographic xxHash, the fastest option
	XXHash Algorithm = "xxhash"
)

// ErrTooLarge is returned when the input exceeds Options.MaxSize
var ErrTooLarge = errors.New("input exceeds maximum checksum size")

// Options configures the checksum calculator
type Options struct {
	// MaxSize stops hashing inputs larger than this many bytes (0 = unlimited)
	MaxSize int64

	// BufferSize is the streaming read buffer size
	BufferSize int
}

// DefaultOptions returns unlimited size with a 32KB buffer
func DefaultOptions() Options {
	return Options{
		MaxSize:    0,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes checksums from a stream
type Calculator interface {
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)
}

// DefaultCalculator streams the input through the hasher in fixed-size reads,
// checking ctx between reads
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// Calculate returns the lowercase hex digest of everything read from reader
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	if c.opts.MaxSize > 0 {
		reader = io.LimitReader(reader, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, c.opts.MaxSize)
			}
			h.Write(buffer[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrUnreadable, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	case XXHash:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm: %s", domain.ErrInvalidArgument, algo)
	}
}

// Parse resolves a case-insensitive algorithm name
func Parse(name string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if !IsSupported(algo) {
		return "", fmt.Errorf("%w: unsupported algorithm: %s", domain.ErrInvalidArgument, name)
	}
	return algo, nil
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	switch algo {
	case MD5, SHA256, XXHash:
		return true
	default:
		return false
	}
}

// Supported lists the algorithm names in preference order
func Supported() []Algorithm {
	return []Algorithm{SHA256, MD5, XXHash}
}
