package indexerrun

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is a per-indexer, cross-process exclusive lock preventing two
// overlapping runs of the same indexer, the same guarantee the teacher's
// download lock gives concurrent embedding-model fetches.
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates the lock for indexerName under dir, at
// <dir>/<indexerName>.run.lock.
func NewRunLock(dir, indexerName string) *RunLock {
	lockPath := filepath.Join(dir, indexerName+".run.lock")
	return &RunLock{path: lockPath, flock: flock.New(lockPath)}
}

// TryLock attempts to acquire the lock without blocking. A false return
// with a nil error means another run already holds it — the caller
// should fail the run rather than queue, per the "indexers do not queue
// concurrent runs" expectation.
func (l *RunLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create run-lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked RunLock.
func (l *RunLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	l.locked = false
	return nil
}
