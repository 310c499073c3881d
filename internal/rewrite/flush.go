package rewrite

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FlushInPlace overwrites path with content. The write goes to a temporary
// file in the same directory followed by a rename, so a failed flush leaves
// the original untouched instead of half-written.
func FlushInPlace(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stitch-*")
	if err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("flush %s: %w", path, err)
	}

	// Carry over the original permissions when the file exists.
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("flush %s: %w", path, err)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// FlushStream writes content to w, leaving the source file untouched.
func FlushStream(w io.Writer, content []byte) error {
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("flush stream: %w", err)
	}
	return nil
}
