package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
)

// ErrLocked is returned when another live process holds the run lock
var ErrLocked = errors.New("database is locked by another run")

// RunLock is the content of the lock file written next to the database while
// a command is writing to it
type RunLock struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// LockPath returns the lock file used for dbPath, or "" for in-memory stores
func LockPath(dbPath string) string {
	if dbPath == "" || dbPath == ":memory:" {
		return ""
	}
	return dbPath + ".lock"
}

// unreadableLockAge is how old a lock file that cannot be parsed must be
// before it is treated as abandoned. Younger ones may still be mid-write.
const unreadableLockAge = time.Minute

// AcquireRunLock claims the database for one writing run. The lock file is
// created with O_EXCL, so of several runs starting together only one wins.
// A lock left behind by a process that no longer exists is taken over.
// Returns the lock file path for ReleaseRunLock.
func AcquireRunLock(dbPath, holder string) (lockPath string, err error) {
	lockPath = LockPath(dbPath)
	if lockPath == "" {
		return "", nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	data, err := json.MarshalIndent(RunLock{
		Holder:    holder,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	err = createLockFile(lockPath, data)
	if errors.Is(err, os.ErrExist) {
		if err := checkExistingLock(lockPath); err != nil {
			return "", err
		}
		// Stale: remove it and race for a fresh one
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to remove stale run lock: %w", err)
		}
		err = createLockFile(lockPath, data)
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: another run took over a stale lock", ErrLocked)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create run lock: %w", err)
	}
	return lockPath, nil
}

// createLockFile writes data to a new file at path, failing with os.ErrExist
// if the file is already there.
func createLockFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// checkExistingLock returns ErrLocked unless the lock at path is stale
func checkExistingLock(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat run lock: %w", err)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read run lock: %w", err)
	}

	var existing RunLock
	if err := json.Unmarshal(data, &existing); err != nil {
		if time.Since(info.ModTime()) < unreadableLockAge {
			return fmt.Errorf("%w: lock file %s is being written", ErrLocked, path)
		}
		return nil
	}
	if isProcessAlive(existing.PID, existing.Hostname) {
		return fmt.Errorf("%w: %s (PID %d on %s, started %s)", ErrLocked,
			existing.Holder, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
	}
	return nil
}

// ReleaseRunLock removes the lock file
func ReleaseRunLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove run lock: %w", err)
	}
	return nil
}

// isProcessAlive checks if a process with the given PID exists on hostname.
// Processes on other hosts cannot be checked and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 only checks for existence; EPERM means it exists but is not ours
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
