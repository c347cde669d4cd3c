package lock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Ning0612/fstools/internal/domain"
	"github.com/Ning0612/fstools/internal/testutil"
)

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	lock, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("lock directory should be created")
	}

	if _, err := New(""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty dir, got %v", err)
	}
}

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := lock.Acquire("sync", "photos"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock file should exist: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Error("lock file should be removed after release")
	}

	// Releasing twice is a no-op
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should succeed, got %v", err)
	}
}

func TestAcquire_Contention(t *testing.T) {
	dir := t.TempDir()

	first, _ := New(dir)
	second, _ := New(dir)

	if err := first.Acquire("sync", "first"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	err := second.Acquire("sync", "second")
	if err == nil {
		second.Release()
		t.Fatal("expected error when lock is held")
	}
	if !IsLockError(err) {
		t.Errorf("expected LockError, got %T", err)
	}
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("lock contention should match ErrSyncInProgress, got %v", err)
	}

	var le *LockError
	if !errors.As(err, &le) || le.Holder == nil || le.Holder.Job != "first" {
		t.Errorf("error should carry the holder, got %+v", le)
	}
}

func TestAcquire_SameInstanceUpdatesHolder(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	if err := lock.Acquire("sync", "a"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	first, err := lock.Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}

	if err := lock.Acquire("split", "b"); err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}

	second, err := lock.Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if second.Operation != "split" || second.Job != "b" {
		t.Errorf("holder not updated: %+v", second)
	}
	if !second.StartTime.Equal(first.StartTime) {
		t.Error("re-acquire should keep the original start time")
	}
}

func TestRelease_AfterHolderChanged(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	if err := lock.Acquire("sync", "a"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Another process replaced the lock file after a force release
	hostname, _ := os.Hostname()
	if err := lock.write(&Holder{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now().Add(time.Hour),
		Operation: "sync",
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := lock.Release(); err == nil {
		t.Error("Release should refuse to remove a lock it no longer owns")
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Error("foreign lock file should be kept")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	dir := t.TempDir()

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)

	start := make(chan struct{})
	locks := make([]*FileLock, workers)
	for i := range locks {
		l, err := New(dir)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		locks[i] = l
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(l *FileLock) {
			defer wg.Done()
			<-start
			if err := l.Acquire("sync", ""); err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}(locks[i])
	}

	close(start)
	wg.Wait()

	if acquired != 1 {
		t.Errorf("expected exactly one holder, got %d", acquired)
	}
}

func TestIsLocked(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	if lock.IsLocked() {
		t.Error("lock should not be held initially")
	}

	lock.Acquire("sync", "")
	if !lock.IsLocked() {
		t.Error("lock should be held after acquire")
	}

	lock.Release()
	if lock.IsLocked() {
		t.Error("lock should not be held after release")
	}
}

func TestHolder(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	if _, err := lock.Holder(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist without a lock, got %v", err)
	}

	if err := lock.Acquire("sync", "docs"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	holder, err := lock.Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}

	if holder.PID != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), holder.PID)
	}
	hostname, _ := os.Hostname()
	if holder.Hostname != hostname {
		t.Errorf("expected hostname %s, got %s", hostname, holder.Hostname)
	}
	if holder.Operation != "sync" || holder.Job != "docs" {
		t.Errorf("unexpected holder %+v", holder)
	}
	if time.Since(holder.StartTime) > time.Second {
		t.Error("start time should be recent")
	}
}

func TestForceRelease(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	lock.Acquire("sync", "")

	if err := lock.ForceRelease(); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Error("lock file should be removed after force release")
	}
	if lock.IsLocked() {
		t.Error("lock should not be held after force release")
	}

	// Nothing to remove is fine
	if err := lock.ForceRelease(); err != nil {
		t.Errorf("ForceRelease without a lock failed: %v", err)
	}
}

func TestStale_DeadProcess(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)

	hostname, _ := os.Hostname()
	if err := lock.write(&Holder{
		PID:       999999,
		Hostname:  hostname,
		StartTime: time.Now().Add(-time.Hour),
		Operation: "sync",
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if lock.IsLocked() {
		t.Error("lock of a dead process should not count as held")
	}

	if err := lock.Acquire("sync", "new"); err != nil {
		t.Fatalf("should take over stale lock: %v", err)
	}
	defer lock.Release()

	holder, err := lock.Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if holder.PID != os.Getpid() {
		t.Error("expected current process to be holder")
	}
}

func TestStale_LiveProcessNeverExpires(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	lock.SetStaleTimeout(10 * time.Millisecond)

	if err := lock.Acquire("sync", "long"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	time.Sleep(50 * time.Millisecond)

	if !lock.IsLocked() {
		t.Error("lock of a live process should not expire")
	}

	other, _ := New(dir)
	other.SetStaleTimeout(10 * time.Millisecond)
	if err := other.Acquire("sync", "competing"); !IsLockError(err) {
		other.Release()
		t.Errorf("expected LockError, got %v", err)
	}
}

func TestStale_DifferentHost(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	lock.SetStaleTimeout(100 * time.Millisecond)

	foreign := &Holder{
		PID:       12345,
		Hostname:  "foreign-host-" + testutil.RandomString(8),
		StartTime: time.Now(),
		Operation: "sync",
	}
	if err := lock.write(foreign); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if !lock.IsLocked() {
		t.Error("fresh foreign lock should be honoured")
	}

	foreign.StartTime = time.Now().Add(-time.Hour)
	if err := lock.write(foreign); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := lock.Acquire("sync", "local"); err != nil {
		t.Fatalf("should take over expired foreign lock: %v", err)
	}
	lock.Release()
}

func TestInvalidLockFile(t *testing.T) {
	dir := t.TempDir()

	lock, _ := New(dir)
	if err := os.WriteFile(lock.Path(), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := lock.Holder(); err == nil {
		t.Error("expected error for corrupt lock file")
	}
	if lock.IsLocked() {
		t.Error("corrupt lock file should not count as held")
	}
}

func TestProcessExists(t *testing.T) {
	if !ProcessExists(os.Getpid()) {
		t.Error("current process should exist")
	}
	if ProcessExists(0) || ProcessExists(-1) {
		t.Error("non-positive PIDs should not exist")
	}
}

func TestLockError_Message(t *testing.T) {
	err := &LockError{Reason: "busy"}
	if err.Error() != "cannot acquire lock: busy" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err.Holder = &Holder{PID: 42, Hostname: "h", Operation: "sync", Job: "j"}
	if msg := err.Error(); msg == "" || !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("unexpected error %q", msg)
	}
}
