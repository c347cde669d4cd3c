package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_InitAndGet(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(Config{Level: LevelInfo, Console: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	Get().Info("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("log output missing message: %s", buf.String())
	}
}

func TestLogger_InitTwice(t *testing.T) {
	if err := Init(Config{Console: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	if err := Init(Config{Console: &bytes.Buffer{}}); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestLogger_NullLogger(t *testing.T) {
	Shutdown()

	l := Get()
	if _, ok := l.(NullLogger); !ok {
		t.Fatalf("Get() before Init = %T, want NullLogger", l)
	}

	l.Info("should not crash")
	l.Debug("should not crash")
	l.With("k", "v").Warn("should not crash")
	l.Error("should not crash")
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Config{Level: LevelInfo, Console: buf})
	defer Shutdown()

	With("component", "sync").Info("message")

	if !strings.Contains(buf.String(), "component=sync") {
		t.Errorf("output missing context: %s", buf.String())
	}
}

func TestLogger_Sync(t *testing.T) {
	Init(Config{Console: &bytes.Buffer{}})
	defer Shutdown()

	if err := Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestLogger_Shutdown(t *testing.T) {
	Init(Config{Console: &bytes.Buffer{}})
	Get().Info("before shutdown")

	if err := Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestLogger_LegacyFallback(t *testing.T) {
	t.Setenv(LegacyEnv, "true")

	buf := &bytes.Buffer{}
	if err := Init(Config{Level: LevelInfo, Console: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	if _, ok := Get().(*LegacyLogger); !ok {
		t.Fatalf("Get() = %T, want *LegacyLogger", Get())
	}

	With("job", "photos").Warn("copy failed", "path", "a.txt")
	Get().Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "[WARN] copy failed job=photos path=a.txt") {
		t.Errorf("unexpected legacy output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}
