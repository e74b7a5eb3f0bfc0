package store

import (
	"errors"

	"github.com/google/uuid"
)

// Commands recorded in the journal.
const (
	CommandList    = "list"
	CommandCompare = "compare"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded list or compare invocation.
type Run struct {
	ID      string  `json:"id"`
	Seq     int64   `json:"seq"`
	Command string  `json:"command"`
	Subject string  `json:"subject"` // working directory for list, snapshot file for compare
	Tag     uint64  `json:"tag,omitempty"`
	Entries []Entry `json:"entries,omitempty"`
}

// Entry is one ordered line of a run, e.g. {"load", "/src/.cdenv.sh"} or
// {"modify", "greet()"}.
type Entry struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. It panics if the system random
// source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
