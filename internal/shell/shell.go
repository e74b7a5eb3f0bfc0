// Package shell renders values as bash source text.
//
// Everything cdenv writes to stdout or to a restore file is sourced by the
// shell hook, so all user-controlled strings pass through Quote before they
// reach the output.
package shell

import (
	"fmt"
	"io"
	"strings"
)

// DebugFunc is the hook-side helper that prints diagnostics when cdenv
// debugging is enabled in the shell.
const DebugFunc = "__cdenv_debug"

// Quote wraps s in single quotes so that bash reads it back verbatim.
// Embedded single quotes are written as '\''.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// EscapeDebug prepares arbitrary text for use inside a single-quoted
// DebugFunc argument. The helper expands backslash escapes, so backslashes
// are doubled before single quotes are closed and reopened.
func EscapeDebug(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `'\''`)
}

// Debug returns a report line: __cdenv_debug 'msg'.
// msg must already be safe inside single quotes.
func Debug(msg string) string {
	return DebugFunc + " '" + msg + "'\n"
}

// Undo returns the restore-side counterpart of Debug.
func Undo(msg string) string {
	return DebugFunc + " undo '" + msg + "'\n"
}

// WriteArray writes a bash array assignment, one quoted element per line:
//
//	decl=(
//	  'a'
//	  'b'
//	)
func WriteArray(w io.Writer, decl string, items []string) error {
	var b strings.Builder
	b.WriteString(decl)
	b.WriteString("=(\n")
	for _, item := range items {
		b.WriteString("  ")
		b.WriteString(Quote(item))
		b.WriteByte('\n')
	}
	b.WriteString(")\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write %s: %w", decl, err)
	}
	return nil
}
