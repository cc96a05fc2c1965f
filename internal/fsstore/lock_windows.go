//go:build windows

package fsstore

import (
	"context"
	"errors"
	"os"
	"time"
)

// staleLockAge is how old a lock file must be before it is treated as left
// behind by a crashed process. Stats writes finish in milliseconds.
const staleLockAge = time.Minute

// withLockFile uses an O_EXCL lock file, removed when fn returns.
func withLockFile(ctx context.Context, lockPath string, fn func() error) error {
	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, defaultFilePerm)
		if err == nil {
			defer func() {
				file.Close()
				os.Remove(lockPath)
			}()
			return fn()
		}
		if !errors.Is(err, os.ErrExist) {
			return &PathError{Op: "open lock", Path: lockPath, Err: err}
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(lockPath)
			continue
		}
		if err := pollLock(ctx, lockPath); err != nil {
			return err
		}
	}
}
