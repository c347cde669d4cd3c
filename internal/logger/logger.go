package logger

import (
	"errors"
	"os"
	"sync"
)

// LegacyEnv switches Init to the plain-text fallback logger when set to "true"
const LegacyEnv = "FSTOOLS_USE_LEGACY_LOGGER"

// ErrAlreadyInitialized is returned by a second Init without Shutdown
var ErrAlreadyInitialized = errors.New("logger already initialized")

var (
	mu            sync.RWMutex
	defaultLogger Logger = NullLogger{}
	initialized   bool
)

// Init installs the process-wide logger
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return ErrAlreadyInitialized
	}

	var l Logger
	if os.Getenv(LegacyEnv) == "true" {
		l = NewLegacyLogger(config.Console, config.Level)
	} else {
		sl, err := NewSlogLogger(config)
		if err != nil {
			return err
		}
		l = sl
	}

	defaultLogger = l
	initialized = true
	return nil
}

// Get returns the process-wide logger, or a NullLogger before Init
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// With returns a child of the process-wide logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Sync flushes the process-wide logger
func Sync() error {
	return Get().Sync()
}

// Shutdown closes the process-wide logger and reverts to a NullLogger.
// It is safe to call more than once.
func Shutdown() error {
	mu.Lock()
	if !initialized {
		mu.Unlock()
		return nil
	}
	l := defaultLogger
	defaultLogger = NullLogger{}
	initialized = false
	mu.Unlock()

	return l.Shutdown()
}

// NullLogger discards everything
type NullLogger struct{}

func (NullLogger) Debug(string, ...any) {}
func (NullLogger) Info(string, ...any)  {}
func (NullLogger) Warn(string, ...any)  {}
func (NullLogger) Error(string, ...any) {}
func (n NullLogger) With(...any) Logger { return n }
func (NullLogger) Sync() error          { return nil }
func (NullLogger) Shutdown() error      { return nil }
