// Package envdiff compares two shell state snapshots and renders the result
// as bash source.
//
// Compare is pure: it classifies every variable, function and alias in the
// union of both snapshots as added, removed or modified, walking names in
// lexicographic order, and splits the SHELLOPTS and BASHOPTS lists into
// individual option toggles.
//
// An Emitter then writes two streams. The report stream is sourced by the
// shell hook right away and contains one __cdenv_debug line per change plus
// the enter hook invocation. The restore stream is appended to the restore
// file and, when sourced later, reverts every change in order.
//
// The functions cdenv_enter and cdenv_leave are hooks defined by a
// directory's configuration file. They are never reported as ordinary
// function changes.
package envdiff
