package dirstack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// FS answers the filesystem questions the resolver asks.
type FS interface {
	// Exists reports whether path exists. A missing path is not an error.
	Exists(path string) (bool, error)
	// ModTime returns the modification time of path in Unix seconds.
	ModTime(path string) (uint64, error)
	// Glob returns the paths matching pattern in lexical order.
	Glob(pattern string) ([]string, error)
}

// OSFS is the FS backed by the real filesystem.
type OSFS struct{}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

func (OSFS) ModTime(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	sec := info.ModTime().Unix()
	if sec < 0 {
		return 0, nil
	}
	return uint64(sec), nil
}

func (OSFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return matches, nil
}
