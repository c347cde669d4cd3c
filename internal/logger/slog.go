package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger writes through log/slog. Only the logger returned by
// NewSlogLogger owns the log file; children made by With share it.
type SlogLogger struct {
	logger *slog.Logger
	closer io.Closer
}

// NewSlogLogger builds a logger writing to the console and, when
// configured, to a rotated file
func NewSlogLogger(config Config) (*SlogLogger, error) {
	console := config.Console
	if console == nil {
		console = os.Stderr
	}

	out := console
	var closer io.Closer
	if config.File.Enabled() {
		file, err := newFileWriter(config.File)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &SlogLogger{
		logger: slog.New(&sanitizingHandler{next: handler, sanitizer: NewSanitizer()}),
		closer: closer,
	}, nil
}

func newFileWriter(config FileConfig) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxAge:     config.MaxAgeDays,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
	}, nil
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// Slog exposes the underlying *slog.Logger
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

// Sync is a no-op; lumberjack writes through on every record
func (l *SlogLogger) Sync() error {
	return nil
}

// Shutdown closes the log file if this logger owns it
func (l *SlogLogger) Shutdown() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// sanitizingHandler scrubs messages and attribute values before they reach
// the encoder
type sanitizingHandler struct {
	next      slog.Handler
	sanitizer *Sanitizer
}

func (h *sanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sanitizingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, h.sanitizer.Sanitize(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *sanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.sanitizeAttr(a)
	}
	return &sanitizingHandler{next: h.next.WithAttrs(clean), sanitizer: h.sanitizer}
}

func (h *sanitizingHandler) WithGroup(name string) slog.Handler {
	return &sanitizingHandler{next: h.next.WithGroup(name), sanitizer: h.sanitizer}
}

func (h *sanitizingHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = h.sanitizeAttr(g)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindString:
		return slog.String(a.Key, h.sanitizer.SanitizeValue(a.Key, v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.sanitizer.SanitizeValue(a.Key, err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}
