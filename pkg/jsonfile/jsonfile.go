// Package jsonfile reads and atomically writes indented JSON documents.
//
// Writes go to a temporary file in the destination directory which is
// synced and then renamed over the target, so readers observe either the
// previous document or the new one, never a partial write.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	FilePermission      = 0o644
	DirectoryPermission = 0o750
)

// Sentinel kinds for this package.
var (
	ErrDecode = errors.New("decode json document")
	ErrWrite  = errors.New("write json document")
)

// Read decodes the document at path into v. It reports found=false and a nil
// error when the file does not exist, leaving v untouched. A file that exists
// but is empty or whitespace-only is a decode error: WriteAtomic never
// produces one, so it means the document was truncated.
func Read(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, fmt.Errorf("%w %s: blank document", ErrDecode, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return true, nil
}

// WriteAtomic encodes v with two-space indentation and replaces path with it.
func WriteAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w %s: marshal: %v", ErrWrite, path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirectoryPermission); err != nil {
		return fmt.Errorf("%w %s: create directory: %v", ErrWrite, path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: create temp: %v", ErrWrite, path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w %s: write temp: %v", ErrWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w %s: sync temp: %v", ErrWrite, path, err)
	}
	if err := tmp.Chmod(FilePermission); err != nil {
		return fmt.Errorf("%w %s: chmod temp: %v", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w %s: close temp: %v", ErrWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w %s: rename: %v", ErrWrite, path, err)
	}
	committed = true

	// Persist the rename itself. Some platforms cannot fsync a directory;
	// the data is already in place at this point so that is not fatal.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
