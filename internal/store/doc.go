// Package store provides the SQLite-backed run journal.
//
// When a journal path is configured, every list and compare run is appended
// as a run row plus its ordered entries: the files unloaded and loaded, or
// the names added, removed and modified. The journal is write-only from the
// point of view of list and compare; only the history command reads it.
//
// # Ordering
//
//   - Runs are ordered by seq, assigned by SQLite on insert, never by
//     wall-clock time.
//   - Entries are ordered by their position within the run.
//   - Run IDs are UUIDv7, so they also sort by creation time.
//
// # Text normalisation
//
// Paths and names are stored in Unicode NFC so that the same directory
// typed on different systems maps to one subject.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: shells in several terminals may write at once
//   - foreign_keys=ON: entries must reference an existing run
package store
