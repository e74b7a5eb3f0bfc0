package testutil

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemFS is an in-memory filesystem keyed by absolute path.
//
// Files carry a modification time in Unix seconds. Touch assigns times from
// a logical clock so tests can order edits without sleeping.
//
// Thread-safety: all methods are safe for concurrent use.
type MemFS struct {
	mu    sync.Mutex
	files map[string]uint64
	errs  map[string]error
	clock uint64
}

// NewMemFS returns an empty filesystem whose clock starts at 0.
func NewMemFS() *MemFS {
	return &MemFS{
		files: map[string]uint64{},
		errs:  map[string]error{},
	}
}

// Add creates or replaces a file with the given modification time.
func (m *MemFS) Add(p string, mtime uint64) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = mtime
	if mtime > m.clock {
		m.clock = mtime
	}
	return m
}

// Touch creates or updates a file and stamps it with the next clock tick.
// It returns the new modification time.
func (m *MemFS) Touch(p string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock++
	m.files[p] = m.clock
	return m.clock
}

// Remove deletes a file.
func (m *MemFS) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
}

// Fail makes every query for p return err.
func (m *MemFS) Fail(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[p] = err
}

// Exists implements dirstack.FS.
func (m *MemFS) Exists(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[p]; err != nil {
		return false, err
	}
	_, ok := m.files[p]
	return ok, nil
}

// ModTime implements dirstack.FS.
func (m *MemFS) ModTime(p string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[p]; err != nil {
		return 0, err
	}
	mtime, ok := m.files[p]
	if !ok {
		return 0, fmt.Errorf("stat %s: %w", p, fs.ErrNotExist)
	}
	return mtime, nil
}

// Glob implements dirstack.FS. Only the last path element may contain
// wildcards.
func (m *MemFS) Glob(pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir, base := path.Split(pattern)
	if _, err := path.Match(base, ""); err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	var matches []string
	for p := range m.files {
		if !strings.HasPrefix(p, dir) || strings.Contains(p[len(dir):], "/") {
			continue
		}
		if ok, _ := path.Match(base, p[len(dir):]); ok {
			matches = append(matches, p)
		}
	}
	sort.Strings(matches)
	return matches, nil
}
