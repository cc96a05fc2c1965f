package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockPollInterval = 25 * time.Millisecond

// WithLock runs fn while holding an exclusive lock on lockPath. It polls until
// the lock is free or ctx is done; callers bound the wait through ctx.
func WithLock(ctx context.Context, lockPath string, fn func() error) error {
	lockPath, err := cleanPath(lockPath)
	if err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if dir := filepath.Dir(lockPath); dir != "" {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return &PathError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return withLockFile(ctx, lockPath, fn)
}

// pollLock sleeps one interval, or fails with ErrLockTimeout once ctx is done.
func pollLock(ctx context.Context, lockPath string) error {
	timer := time.NewTimer(lockPollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &PathError{Op: "lock", Path: lockPath, Err: fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())}
	case <-timer.C:
		return nil
	}
}
