package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ning0612/fstools/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(filepath.Join(t.TempDir(), "fstools.db"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestNewManager(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "fstools.db")

	manager, err := NewManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if manager.db == nil {
		t.Error("Database connection is nil")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewManager_EmptyPath(t *testing.T) {
	if _, err := NewManager(""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewManager_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "fstools.db")

	first, err := NewManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if _, err := first.Save(ctx, Execution{Operation: "sync", StartTime: time.Now(), EndTime: time.Now(), Status: StatusSuccess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first.Close()

	second, err := NewManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen manager: %v", err)
	}
	defer second.Close()

	history, err := second.History(ctx, Query{Limit: 10})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected history to survive reopen, got %d records", len(history))
	}
}

func TestSaveAndHistory(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	start := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	record := Execution{
		Operation: "sync",
		Job:       "photos",
		Source:    "/src",
		Target:    "/dst",
		StartTime: start,
		EndTime:   start.Add(90 * time.Second),
		Status:    StatusSuccess,
		Files:     10,
		Bytes:     1024,
	}

	id, err := manager.Save(ctx, record)
	if err != nil {
		t.Fatalf("Failed to save execution: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive ID, got %d", id)
	}

	history, err := manager.History(ctx, Query{Job: "photos", Limit: 10})
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history))
	}

	got := history[0]
	if got.ID != id {
		t.Errorf("Expected ID %d, got %d", id, got.ID)
	}
	if got.Operation != "sync" || got.Job != "photos" || got.Source != "/src" || got.Target != "/dst" {
		t.Errorf("Unexpected record %+v", got)
	}
	if got.Status != StatusSuccess {
		t.Errorf("Expected status %s, got %s", StatusSuccess, got.Status)
	}
	if got.Files != 10 || got.Bytes != 1024 {
		t.Errorf("Expected 10 files / 1024 bytes, got %d / %d", got.Files, got.Bytes)
	}
	if !got.StartTime.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, got.StartTime)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Expected duration 90s, got %v", got.Duration())
	}
}

func TestLastSuccess(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	now := time.Now()
	records := []Execution{
		{Operation: "sync", Job: "docs", StartTime: now.Add(-30 * time.Minute), EndTime: now.Add(-29 * time.Minute), Status: StatusSuccess, Files: 5},
		{Operation: "sync", Job: "docs", StartTime: now.Add(-20 * time.Minute), EndTime: now.Add(-19 * time.Minute), Status: StatusFailed, Error: "permission denied"},
		{Operation: "sync", Job: "docs", StartTime: now.Add(-10 * time.Minute), EndTime: now.Add(-9 * time.Minute), Status: StatusSuccess, Files: 10},
		{Operation: "sync", Job: "other", StartTime: now.Add(-time.Minute), EndTime: now, Status: StatusSuccess, Files: 99},
	}
	for _, r := range records {
		if _, err := manager.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save execution: %v", err)
		}
	}

	last, err := manager.LastSuccess(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to get last success: %v", err)
	}
	if last == nil {
		t.Fatal("Expected last success, got nil")
	}
	if last.Files != 10 {
		t.Errorf("Expected last success to have 10 files, got %d", last.Files)
	}
}

func TestLastSuccess_None(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	_, err := manager.Save(ctx, Execution{
		Operation: "sync",
		Job:       "docs",
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now(),
		Status:    StatusFailed,
		Error:     "boom",
	})
	if err != nil {
		t.Fatalf("Failed to save execution: %v", err)
	}

	last, err := manager.LastSuccess(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to get last success: %v", err)
	}
	if last != nil {
		t.Error("Expected nil for last success, got a record")
	}
}

func TestHistory_Filters(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	now := time.Now()
	records := []Execution{
		{Operation: "sync", Job: "a", StartTime: now.Add(-30 * time.Minute), EndTime: now, Status: StatusSuccess},
		{Operation: "split", StartTime: now.Add(-20 * time.Minute), EndTime: now, Status: StatusSuccess},
		{Operation: "sync", Job: "b", StartTime: now.Add(-10 * time.Minute), EndTime: now, Status: StatusFailed, Error: "error"},
	}
	for _, r := range records {
		if _, err := manager.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save execution: %v", err)
		}
	}

	tests := []struct {
		name  string
		query Query
		want  int
		first string
	}{
		{"all", Query{Limit: 100}, 3, "sync"},
		{"by job", Query{Job: "a", Limit: 100}, 1, "sync"},
		{"by operation", Query{Operation: "split", Limit: 100}, 1, "split"},
		{"job and operation", Query{Job: "b", Operation: "split", Limit: 100}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := manager.History(ctx, tt.query)
			if err != nil {
				t.Fatalf("History failed: %v", err)
			}
			if len(history) != tt.want {
				t.Fatalf("Expected %d records, got %d", tt.want, len(history))
			}
			if tt.want > 0 && history[0].Operation != tt.first {
				t.Errorf("Expected first operation %s, got %s", tt.first, history[0].Operation)
			}
		})
	}

	all, _ := manager.History(ctx, Query{Limit: 100})
	if all[0].Job != "b" || all[0].Status != StatusFailed {
		t.Error("Expected most recent record first")
	}
}

func TestHistory_Limit(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	for i := 0; i < 5; i++ {
		_, err := manager.Save(ctx, Execution{
			Operation: "sync",
			Job:       "docs",
			StartTime: time.Now().Add(time.Duration(-i*10) * time.Minute),
			EndTime:   time.Now().Add(time.Duration(-i*10+1) * time.Minute),
			Status:    StatusSuccess,
			Files:     i,
			Bytes:     int64(i * 100),
		})
		if err != nil {
			t.Fatalf("Failed to save execution: %v", err)
		}
	}

	history, err := manager.History(ctx, Query{Job: "docs", Limit: 3})
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(history))
	}
	if history[0].Files != 0 {
		t.Errorf("Expected most recent record to have 0 files, got %d", history[0].Files)
	}
}

func TestHistory_InvalidLimit(t *testing.T) {
	manager := newTestManager(t)

	for _, limit := range []int{0, -1} {
		if _, err := manager.History(context.Background(), Query{Limit: limit}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("limit %d: expected ErrInvalidArgument, got %v", limit, err)
		}
	}
}

func TestSave_Invalid(t *testing.T) {
	manager := newTestManager(t)

	tests := []struct {
		name   string
		record Execution
	}{
		{"invalid status", Execution{Operation: "sync", StartTime: time.Now(), EndTime: time.Now(), Status: "partial"}},
		{"missing operation", Execution{StartTime: time.Now(), EndTime: time.Now(), Status: StatusSuccess}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Save(context.Background(), tt.record); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	now := time.Now()
	for _, age := range []time.Duration{48 * time.Hour, 36 * time.Hour, time.Hour} {
		_, err := manager.Save(ctx, Execution{Operation: "sync", StartTime: now.Add(-age), EndTime: now.Add(-age), Status: StatusSuccess})
		if err != nil {
			t.Fatalf("Failed to save execution: %v", err)
		}
	}

	removed, err := manager.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 pruned records, got %d", removed)
	}

	history, _ := manager.History(ctx, Query{Limit: 10})
	if len(history) != 1 {
		t.Errorf("Expected 1 remaining record, got %d", len(history))
	}
}

func TestCancelledContext(t *testing.T) {
	manager := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := manager.History(ctx, Query{Limit: 1}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
