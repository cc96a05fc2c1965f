//go:build !windows

package fsstore

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// withLockFile takes a non-blocking flock on lockPath. The kernel drops the
// lock when the holder exits, so a crash never leaves it held.
func withLockFile(ctx context.Context, lockPath string, fn func() error) error {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, defaultFilePerm)
	if err != nil {
		return &PathError{Op: "open lock", Path: lockPath, Err: err}
	}
	defer file.Close()

	fd := int(file.Fd())
	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, unix.EINTR):
		case errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EAGAIN):
			if err := pollLock(ctx, lockPath); err != nil {
				return err
			}
		default:
			return &PathError{Op: "flock", Path: lockPath, Err: err}
		}
	}
	defer unix.Flock(fd, unix.LOCK_UN)

	return fn()
}
