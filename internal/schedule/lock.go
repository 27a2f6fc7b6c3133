// Package schedule implements the Scheduler's run-coordination
// concerns (spec.md §4.8): a file lock guarding the "full" command
// against concurrent runs, and TTL-based force-refresh logic.
package schedule

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ExitLockContention is the process exit code spec.md §6 mandates for
// a lock collision.
const ExitLockContention = 2

// Lock wraps the repository-root file lock "full" acquires before
// running, per spec.md §4.8.
type Lock struct {
	fl *flock.Flock
}

// AcquireRunLock tries to take the exclusive lock at
// <root>/.p-vector.lock without blocking. A held lock returns a
// LockContentionError the caller should translate to ExitLockContention.
func AcquireRunLock(root string) (*Lock, error) {
	path := filepath.Join(root, ".p-vector.lock")
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("schedule: acquiring lock %s: %w", path, err)
	}
	if !ok {
		return nil, &LockContentionError{Path: path}
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks the file, safe to call on every exit path (mirroring
// the teacher's symmetric acquire/release pattern in its build
// commands).
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// LockContentionError reports that another process already holds the
// run lock.
type LockContentionError struct {
	Path string
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("another p-vector run holds the lock at %s", e.Path)
}
