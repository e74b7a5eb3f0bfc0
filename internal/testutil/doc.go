// Package testutil provides deterministic doubles for tests: an in-memory
// filesystem for the directory stack resolver and a fixed run ID generator
// for the journal.
package testutil
