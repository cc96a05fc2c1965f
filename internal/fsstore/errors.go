package fsstore

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath = errors.New("fsstore: empty or invalid path")
	ErrCorrupt     = errors.New("fsstore: file is not valid JSON")
	ErrLockTimeout = errors.New("fsstore: gave up waiting for lock")
)

// PathError reports the step that failed and the file it failed on.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("fsstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }
