package fsstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600
)

type FileOptions struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

// ReadJSON decodes path into out. A missing or blank file reports false with no error.
func ReadJSON(path string, out any) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &PathError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &PathError{Op: "decode", Path: path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	return true, nil
}

// WriteJSONAtomic replaces path with the indented encoding of v. Readers see
// either the old file or the new one, never a partial write.
func WriteJSONAtomic(path string, v any, opts FileOptions) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PathError{Op: "encode", Path: path, Err: err}
	}
	return writeAtomic(path, append(data, '\n'), opts.withDefaults())
}

func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrInvalidPath
	}
	return filepath.Clean(path), nil
}

func (o FileOptions) withDefaults() FileOptions {
	if o.DirPerm == 0 {
		o.DirPerm = defaultDirPerm
	}
	if o.FilePerm == 0 {
		o.FilePerm = defaultFilePerm
	}
	return o
}
