package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestRunLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")

	lockPath, err := AcquireRunLock(dbPath, "group")
	if err != nil {
		t.Fatalf("AcquireRunLock failed: %v", err)
	}
	if lockPath != dbPath+".lock" {
		t.Errorf("lock path = %s, want %s", lockPath, dbPath+".lock")
	}

	// Held by this (live) process
	_, err = AcquireRunLock(dbPath, "spellcheck")
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := ReleaseRunLock(lockPath); err != nil {
		t.Fatalf("ReleaseRunLock failed: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed")
	}

	// Releasing twice is fine
	if err := ReleaseRunLock(lockPath); err != nil {
		t.Errorf("second release failed: %v", err)
	}
}

func TestRunLockTakesOverStaleLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")
	hostname, err := os.Hostname()
	if err != nil {
		t.Skip("hostname unavailable")
	}

	// PIDs are far below this on every supported platform
	stale, _ := json.Marshal(RunLock{Holder: "group", PID: 1 << 30, Hostname: hostname, StartedAt: time.Now()})
	if err := os.WriteFile(LockPath(dbPath), stale, 0644); err != nil {
		t.Fatal(err)
	}

	lockPath, err := AcquireRunLock(dbPath, "entities")
	if err != nil {
		t.Fatalf("stale lock should be taken over: %v", err)
	}
	defer func() { _ = ReleaseRunLock(lockPath) }()

	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatal(err)
	}
	var lock RunLock
	if err := json.Unmarshal(data, &lock); err != nil {
		t.Fatal(err)
	}
	if lock.Holder != "entities" || lock.PID != os.Getpid() {
		t.Errorf("lock = %+v, want holder entities and our PID", lock)
	}
}

func TestRunLockInMemory(t *testing.T) {
	lockPath, err := AcquireRunLock(":memory:", "group")
	if err != nil || lockPath != "" {
		t.Errorf("in-memory stores need no lock, got %q, %v", lockPath, err)
	}
}

func TestRunLockConcurrentAcquire(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")

	const runs = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	start := make(chan struct{})
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := AcquireRunLock(dbPath, "group")
			if err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			} else if !errors.Is(err, ErrLocked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if acquired != 1 {
		t.Errorf("%d runs acquired the lock, want exactly 1", acquired)
	}
	_ = ReleaseRunLock(LockPath(dbPath))
}

func TestRunLockUnreadableLockFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")
	lockPath := LockPath(dbPath)

	// A fresh empty file may belong to a run that has not written it yet
	if err := os.WriteFile(lockPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := AcquireRunLock(dbPath, "group"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked for a fresh unreadable lock, got %v", err)
	}

	// An old one is abandoned
	old := time.Now().Add(-2 * unreadableLockAge)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}
	got, err := AcquireRunLock(dbPath, "group")
	if err != nil {
		t.Fatalf("old unreadable lock should be taken over: %v", err)
	}
	_ = ReleaseRunLock(got)
}
