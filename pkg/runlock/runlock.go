// Package runlock keeps two phazr invocations from running against the same
// lock file at once.
package runlock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/gofrs/flock"
)

// retryInterval is how often a waiting Acquire retries the lock.
const retryInterval = 100 * time.Millisecond

// Lock is a held run lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// Acquire takes the exclusive lock at path. With wait zero it fails
// immediately when another process holds the lock; otherwise it retries
// until wait elapses or ctx is done. Contention is reported as ErrLocked.
func Acquire(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "creating lock directory for %s", path)
	}

	fl := flock.New(path)
	var (
		locked bool
		err    error
	)
	if wait <= 0 {
		locked, err = fl.TryLock()
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		locked, err = fl.TryLockContext(waitCtx, retryInterval)
		if err != nil && ctx.Err() == nil && waitCtx.Err() != nil {
			err = nil
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "waiting for run lock")
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "acquiring run lock %s", path)
	}
	if !locked {
		return nil, errors.Newf(errors.ErrLocked, "another run holds the lock %s", path).
			WithDetail("path", path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "releasing run lock %s", l.path)
	}
	return nil
}
