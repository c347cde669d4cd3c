// Package logger is the structured logging front end for fstools. Records
// go through log/slog, are scrubbed by a Sanitizer, and can be mirrored to
// a size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"strings"
)

// Logger is the logging surface used throughout the tool
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Sync() error
	Shutdown() error
}

// Level is a logging severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a case-insensitive level name
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Format selects the record encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat parses "text" or "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// Config describes where and how records are written
type Config struct {
	Level  Level
	Format Format

	// Console receives every record. Nil means os.Stderr; use io.Discard
	// to log only to the file.
	Console io.Writer

	File FileConfig
}

// FileConfig enables a rotated log file next to the console output
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// Enabled reports whether a log file is configured
func (c FileConfig) Enabled() bool {
	return c.Path != ""
}
