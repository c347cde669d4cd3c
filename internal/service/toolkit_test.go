package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ning0612/fstools/internal/adapter/billyfs"
	"github.com/Ning0612/fstools/internal/config"
	"github.com/Ning0612/fstools/internal/core/diff"
	"github.com/Ning0612/fstools/internal/core/synchronizer"
	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/lock"
	"github.com/Ning0612/fstools/internal/progress"
	"github.com/Ning0612/fstools/internal/state"
	"github.com/Ning0612/fstools/internal/testutil"
)

// testConfig returns a config whose state lives in a temp dir, with one
// job per name mapping src to dst
func testConfig(t *testing.T, src, dst string, jobs ...string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = filepath.Join(t.TempDir(), "state")
	for _, name := range jobs {
		cfg.Jobs = append(cfg.Jobs, domain.SyncJob{
			Name:      name,
			Source:    src,
			Target:    dst,
			Recursive: true,
			Enabled:   true,
		})
	}
	return cfg
}

func newTestToolkit(t *testing.T, cfg *config.Config) *Toolkit {
	t.Helper()
	tk, err := NewToolkit(cfg, nil)
	if err != nil {
		t.Fatalf("NewToolkit failed: %v", err)
	}
	t.Cleanup(func() { tk.Close() })
	return tk
}

func TestNewToolkit_NilConfig(t *testing.T) {
	if _, err := NewToolkit(nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewToolkit_CreatesState(t *testing.T) {
	cfg := testConfig(t, "", "")
	newTestToolkit(t, cfg)

	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		t.Errorf("History database was not created: %v", err)
	}
}

func TestToolkit_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.txt", []byte("a"))
	testutil.CreateTestFile(t, dir, "b.log", []byte("b"))
	sub := testutil.CreateTestDir(t, dir, "sub")
	testutil.CreateTestFile(t, sub, "c.txt", []byte("c"))

	tk := newTestToolkit(t, testConfig(t, "", ""))

	entries, err := tk.List(ctx, dir, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 top-level entries, got %d", len(entries))
	}
	if entries[2].Name != "sub" || len(entries[2].Children) != 1 {
		t.Errorf("Expected sub with one child, got %+v", entries[2])
	}

	flat, err := tk.Search(ctx, dir, "*.txt", false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(flat) != 1 {
		t.Errorf("Expected 1 non-recursive match, got %d", len(flat))
	}

	deep, err := tk.SearchByExtension(ctx, dir, "txt", true)
	if err != nil {
		t.Fatalf("SearchByExtension failed: %v", err)
	}
	if len(deep) != 2 {
		t.Errorf("Expected 2 recursive matches, got %d", len(deep))
	}

	if _, err := tk.List(ctx, filepath.Join(dir, "missing"), false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestToolkit_SplitAndJoin(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := testutil.CreateTestFileWithSize(t, dir, "data.bin", 2500)
	original := testutil.ReadFile(t, src)

	cfg := testConfig(t, "", "")
	tk := newTestToolkit(t, cfg)

	out := t.TempDir()
	parts, err := tk.Split(ctx, SplitRequest{Source: src, OutputDir: out, ChunkSize: 1000})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}

	dest := filepath.Join(t.TempDir(), "joined.bin")
	written, err := tk.Join(ctx, JoinRequest{Dest: dest, From: filepath.Join(out, "data.bin")})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if written != 2500 {
		t.Errorf("Expected 2500 bytes joined, got %d", written)
	}
	if !bytes.Equal(testutil.ReadFile(t, dest), original) {
		t.Error("Joined content differs from original")
	}

	history, err := tk.History(ctx, state.Query{Limit: 10})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 history records, got %d", len(history))
	}
	if history[0].Operation != OpJoin || history[1].Operation != OpSplit {
		t.Errorf("Unexpected operations %s, %s", history[0].Operation, history[1].Operation)
	}
	if history[1].Files != 3 || history[1].Bytes != 2500 {
		t.Errorf("Split record has %d files / %d bytes", history[1].Files, history[1].Bytes)
	}
}

func TestToolkit_SplitDefaultChunkSize(t *testing.T) {
	dir := t.TempDir()
	src := testutil.CreateTestFileWithSize(t, dir, "small.bin", 100)

	tk := newTestToolkit(t, testConfig(t, "", ""))

	parts, err := tk.Split(context.Background(), SplitRequest{Source: src})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(parts) != 1 || parts[0].Path != filepath.Join(dir, "small.bin.part0") {
		t.Errorf("Expected one part next to the source, got %+v", parts)
	}
}

func TestToolkit_SplitFailureRecorded(t *testing.T) {
	ctx := context.Background()
	tk := newTestToolkit(t, testConfig(t, "", ""))

	_, err := tk.Split(ctx, SplitRequest{Source: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	history, _ := tk.History(ctx, state.Query{Operation: OpSplit, Limit: 1})
	if len(history) != 1 || history[0].Status != state.StatusFailed || history[0].Error == "" {
		t.Errorf("Expected a failed split record, got %+v", history)
	}
}

func TestToolkit_Sync(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()
	testutil.CreateTestFile(t, src, "a.txt", []byte("hello"))
	sub := testutil.CreateTestDir(t, src, "sub")
	testutil.CreateTestFile(t, sub, "b.txt", []byte("world!"))
	testutil.CreateTestFile(t, src, "skip.tmp", []byte("x"))

	tk := newTestToolkit(t, testConfig(t, src, dst))

	var events []domain.SyncEvent
	result, err := tk.Sync(ctx, SyncRequest{
		Source:    src,
		Target:    dst,
		Recursive: true,
		Excludes:  []string{"*.tmp"},
		Recorder: synchronizer.RecorderFunc(func(e domain.SyncEvent) error {
			events = append(events, e)
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if result.Files != 2 || result.Copied != 2 || result.Bytes != 11 {
		t.Errorf("Unexpected result %+v", result)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 forwarded events, got %d", len(events))
	}
	if got := testutil.ReadFile(t, filepath.Join(dst, "sub", "b.txt")); string(got) != "world!" {
		t.Errorf("Unexpected target content %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, "skip.tmp")); !os.IsNotExist(err) {
		t.Error("Excluded file should not be copied")
	}

	// Nothing is newer on the second run
	again, err := tk.Sync(ctx, SyncRequest{Source: src, Target: dst, Recursive: true, Excludes: []string{"*.tmp"}})
	if err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	if again.Files != 2 || again.Copied != 0 || again.Bytes != 0 {
		t.Errorf("Second run should visit but not copy, got %+v", again)
	}

	history, _ := tk.History(ctx, state.Query{Operation: OpSync, Limit: 10})
	if len(history) != 2 {
		t.Fatalf("Expected 2 sync records, got %d", len(history))
	}
	if history[1].Status != state.StatusSuccess || history[1].Files != 2 || history[1].Bytes != 11 {
		t.Errorf("Unexpected first record %+v", history[1])
	}
}

func TestToolkit_SyncComparer(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()

	now := time.Now()
	s := testutil.CreateTestFile(t, src, "a.txt", []byte("new content"))
	d := testutil.CreateTestFile(t, dst, "a.txt", []byte("old"))
	testutil.SetModTime(t, s, now.Add(-time.Hour))
	testutil.SetModTime(t, d, now)

	tk := newTestToolkit(t, testConfig(t, src, dst))

	result, err := tk.Sync(ctx, SyncRequest{Source: src, Target: dst})
	if err != nil || result.Copied != 0 {
		t.Fatalf("Older source should not be copied by default: %+v, %v", result, err)
	}

	result, err = tk.Sync(ctx, SyncRequest{Source: src, Target: dst, Comparer: diff.NewSizeTimeComparer()})
	if err != nil || result.Copied != 1 {
		t.Fatalf("Size-time comparer should copy a differing file: %+v, %v", result, err)
	}
}

func TestToolkit_SyncInvalid(t *testing.T) {
	ctx := context.Background()
	tk := newTestToolkit(t, testConfig(t, "", ""))

	if _, err := tk.Sync(ctx, SyncRequest{Source: t.TempDir()}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	_, err := tk.Sync(ctx, SyncRequest{Source: filepath.Join(t.TempDir(), "missing"), Target: t.TempDir()})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	history, _ := tk.History(ctx, state.Query{Limit: 10})
	if len(history) != 1 || history[0].Status != state.StatusFailed {
		t.Errorf("Expected one failed record, got %+v", history)
	}
}

func TestToolkit_SyncLocked(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "", "")
	tk := newTestToolkit(t, cfg)

	other, err := lock.New(cfg.StateDir)
	if err != nil {
		t.Fatalf("lock.New failed: %v", err)
	}
	if err := other.Acquire("sync", "elsewhere"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer other.Release()

	_, err = tk.Sync(ctx, SyncRequest{Source: t.TempDir(), Target: t.TempDir()})
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("Expected ErrSyncInProgress, got %v", err)
	}

	holder, err := tk.LockHolder()
	if err != nil || holder.Job != "elsewhere" {
		t.Errorf("Expected holder for job elsewhere, got %+v, %v", holder, err)
	}
}

func TestToolkit_LockReleasedAfterSync(t *testing.T) {
	cfg := testConfig(t, "", "")
	tk := newTestToolkit(t, cfg)

	if _, err := tk.Sync(context.Background(), SyncRequest{Source: t.TempDir(), Target: t.TempDir()}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if _, err := tk.LockHolder(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Lock should be released after sync, got %v", err)
	}
}

func TestToolkit_RunJob(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()
	testutil.CreateTestFile(t, src, "a.txt", []byte("job"))

	tk := newTestToolkit(t, testConfig(t, src, dst, "docs"))

	if err := tk.RunJob(ctx, "docs"); err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}
	if got := testutil.ReadFile(t, filepath.Join(dst, "a.txt")); string(got) != "job" {
		t.Errorf("Unexpected content %q", got)
	}

	last, err := tk.LastSuccess(ctx, "docs")
	if err != nil || last == nil || last.Files != 1 {
		t.Errorf("Expected a successful record for docs, got %+v, %v", last, err)
	}

	if err := tk.RunJob(ctx, "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestToolkit_ProgressReporter(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutil.CreateTestFileWithSize(t, src, "big.bin", 4096)

	tk := newTestToolkit(t, testConfig(t, src, dst))

	var completed int
	var lastOverall int
	tk.SetProgressReporter(progress.NewCallbackReporter(func(u progress.Update) {
		switch u.Type {
		case progress.UpdateComplete:
			completed++
		case progress.UpdateOverall:
			lastOverall = u.FilesCompleted
		}
	}))

	if _, err := tk.Sync(context.Background(), SyncRequest{Source: src, Target: dst}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if completed != 1 || lastOverall != 1 {
		t.Errorf("Expected one completed transfer, got complete=%d overall=%d", completed, lastOverall)
	}
}

func TestToolkit_InMemoryAdapter(t *testing.T) {
	ctx := context.Background()
	adp := billyfs.NewInMemory()
	fs := adp.Raw()
	fs.MkdirAll("src", 0755)
	fs.MkdirAll("dst", 0755)
	f, _ := fs.Create("src/a.txt")
	f.Write([]byte("mem"))
	f.Close()

	tk, err := NewToolkit(testConfig(t, "", ""), adp)
	if err != nil {
		t.Fatalf("NewToolkit failed: %v", err)
	}
	defer tk.Close()

	result, err := tk.Sync(ctx, SyncRequest{Source: "src", Target: "dst"})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Copied != 1 {
		t.Errorf("Expected 1 copy, got %d", result.Copied)
	}
	if _, err := fs.Stat("dst/a.txt"); err != nil {
		t.Errorf("Copied file missing: %v", err)
	}
}

func TestToolkit_PruneHistory(t *testing.T) {
	ctx := context.Background()
	tk := newTestToolkit(t, testConfig(t, "", ""))

	if _, err := tk.Sync(ctx, SyncRequest{Source: t.TempDir(), Target: t.TempDir()}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	removed, err := tk.PruneHistory(ctx, time.Now().Add(-time.Hour))
	if err != nil || removed != 0 {
		t.Errorf("Recent runs should be kept, removed %d, err %v", removed, err)
	}

	removed, err = tk.PruneHistory(ctx, time.Now().Add(time.Hour))
	if err != nil || removed != 1 {
		t.Errorf("Expected 1 run pruned, got %d, err %v", removed, err)
	}
}
