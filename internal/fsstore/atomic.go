package fsstore

import (
	"os"
	"path/filepath"
)

// writeAtomic writes content to a temp file beside path, fsyncs it and renames
// it over path.
func writeAtomic(path string, content []byte, opts FileOptions) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, opts.DirPerm); err != nil {
		return &PathError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return &PathError{Op: "create temp", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return &PathError{Op: "write temp", Path: tmp.Name(), Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &PathError{Op: "sync temp", Path: tmp.Name(), Err: err}
	}
	if err := tmp.Chmod(opts.FilePerm); err != nil {
		return &PathError{Op: "chmod temp", Path: tmp.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PathError{Op: "close temp", Path: tmp.Name(), Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &PathError{Op: "rename", Path: path, Err: err}
	}

	// Persist the rename itself; not every platform supports syncing a directory.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
