package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LegacyLogger prints "<time> [LEVEL] msg key=value ..." lines without
// slog. It is the escape hatch selected by FSTOOLS_USE_LEGACY_LOGGER.
type LegacyLogger struct {
	mu    *sync.Mutex
	out   io.Writer
	level Level
	attrs []any
}

// NewLegacyLogger writes records at or above level to out (os.Stderr if nil)
func NewLegacyLogger(out io.Writer, level Level) *LegacyLogger {
	if out == nil {
		out = os.Stderr
	}
	return &LegacyLogger{mu: &sync.Mutex{}, out: out, level: level}
}

func (l *LegacyLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *LegacyLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *LegacyLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *LegacyLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }

func (l *LegacyLogger) With(args ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(append(attrs, l.attrs...), args...)
	return &LegacyLogger{mu: l.mu, out: l.out, level: l.level, attrs: attrs}
}

func (l *LegacyLogger) Sync() error     { return nil }
func (l *LegacyLogger) Shutdown() error { return nil }

func (l *LegacyLogger) log(level Level, msg string, args []any) {
	if level < l.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", time.Now().Format(time.DateTime), strings.ToUpper(level.String()), msg)
	writePairs(&b, l.attrs)
	writePairs(&b, args)
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, b.String())
}

func writePairs(b *strings.Builder, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(b, " %v", args[i])
			break
		}
		fmt.Fprintf(b, " %v=%v", args[i], args[i+1])
	}
}
