package envdiff

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/cdenv/internal/shell"
	"github.com/roach88/cdenv/internal/shellstate"
)

// Emitter writes a Result as bash source.
type Emitter struct {
	Report  io.Writer // sourced immediately by the shell hook
	Restore io.Writer // sourced when the directory is left
}

// Diagnostics writes one report line per unparsed input line.
func (e *Emitter) Diagnostics(diags []shellstate.Diagnostic) error {
	for _, d := range diags {
		line := shell.Debug("unable to parse: " + shell.EscapeDebug(d.Text))
		if _, err := io.WriteString(e.Report, line); err != nil {
			return fmt.Errorf("write diagnostic: %w", err)
		}
	}
	return nil
}

// Emit writes the report and restore statements for res. The leave hook,
// if any, is written to the restore stream before the restore statements
// so that it runs against the configured environment.
func (e *Emitter) Emit(res *Result) error {
	report := &stickyWriter{w: e.Report}
	restore := &stickyWriter{w: e.Restore}

	if res.LeaveHook != "" {
		restore.write(res.LeaveHook)
		restore.write(LeaveHook + "\n")
		restore.write("unset -f " + LeaveHook + "\n")
	}

	for _, c := range res.Changes {
		report.write(shell.Debug(c.String()))
		restore.write(shell.Undo(c.String()))
		restore.write(c.Restore())
	}

	if res.EnterHook != "" {
		report.write(res.EnterHook)
		report.write(EnterHook + "\n")
		report.write("unset -f " + EnterHook + "\n")
	}
	if res.LeaveHook != "" {
		report.write("unset -f " + LeaveHook + "\n")
	}

	if report.err != nil {
		return fmt.Errorf("write report: %w", report.err)
	}
	if restore.err != nil {
		return fmt.Errorf("write restore: %w", restore.err)
	}
	return nil
}

// OpenRestore opens the restore file for appending, creating it if needed.
// Existing content is kept so that callers can seed the file.
func OpenRestore(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open restore file: %w", err)
	}
	return f, nil
}

// stickyWriter remembers the first write error and skips later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) write(text string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, text)
}
