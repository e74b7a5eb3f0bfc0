package store

import (
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// listRun builds a list run with the given load entries.
func listRun(id, dir string, loads ...string) Run {
	run := Run{ID: id, Command: CommandList, Subject: dir}
	for _, p := range loads {
		run.Entries = append(run.Entries, Entry{Action: "load", Subject: p})
	}
	return run
}
