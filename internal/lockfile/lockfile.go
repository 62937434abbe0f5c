// Package lockfile coordinates file access with advisory flock locks.
//
// Source spreadsheets and CSV exports are routinely held open by the teams
// that produce them. Readers take a shared lock on the source before
// streaming it; writers take an exclusive sidecar lock before appending to
// an aggregate output so concurrent runs never interleave rows.
package lockfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when a lock is held by another process. Callers treat
// it as a transient condition and retry.
var ErrBusy = errors.New("file is locked by another process")

// Lock wraps a flock advisory lock on a path.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock for the given path. The path itself is used as the
// lock target; no sidecar file is created.
func New(path string) *Lock {
	return &Lock{
		flock: flock.New(path),
		path:  path,
	}
}

// TryShared attempts to acquire a shared (read) lock without blocking.
// Returns ErrBusy when another process holds an exclusive lock.
func (l *Lock) TryShared() error {
	acquired, err := l.flock.TryRLock()
	if err != nil {
		return fmt.Errorf("failed to try read lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%s: %w", l.path, ErrBusy)
	}
	return nil
}

// TryExclusive attempts to acquire an exclusive lock without blocking.
// Returns ErrBusy when the lock is held elsewhere.
func (l *Lock) TryExclusive() error {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%s: %w", l.path, ErrBusy)
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Append opens path in append mode (creating it if absent), holds an
// exclusive sidecar lock for the duration, and hands the open file to fn.
//
// The sidecar is path + ".lock" so the lock survives the data file being
// created lazily. Contention returns ErrBusy without invoking fn; the data
// file is synced and closed before the lock is released.
func Append(path string, fn func(w io.Writer) error) error {
	sidecar := New(path + ".lock")
	if err := sidecar.TryExclusive(); err != nil {
		return err
	}
	defer sidecar.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}

	if err := fn(file); err != nil {
		file.Close()
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}

	return file.Close()
}

// IsBusy reports whether err stems from lock contention.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
