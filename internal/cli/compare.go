package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cdenv/internal/envdiff"
	"github.com/roach88/cdenv/internal/shellstate"
	"github.com/roach88/cdenv/internal/store"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare SNAPSHOT RESTORE",
		Short: "Record how to undo the changes made by a sourced file",
		Long: `Compare the shell state saved in SNAPSHOT with the current shell state
read from stdin.

Both states are the output of "declare -p; declare -f; alias -p". A report
of every added, removed and modified variable, function and alias, and of
every toggled shell option, is printed to stdout as __cdenv_debug calls.
Statements that revert the changes are appended to RESTORE.

Example:
  { declare -p; declare -f; alias -p; } | cdenv compare "$before" "$restore"`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(rootOpts, cmd, args[0], args[1])
		},
	}
	return cmd
}

func runCompare(opts *RootOptions, cmd *cobra.Command, snapshotPath, restorePath string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	f, err := os.Open(snapshotPath)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open snapshot", err)
	}
	before, beforeDiags, err := shellstate.Parse(f)
	f.Close()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to parse snapshot", err)
	}

	after, afterDiags, err := shellstate.Parse(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to parse shell state", err)
	}
	opts.Logger.Debug("parsed shell state",
		"before_variables", len(before.Variables), "after_variables", len(after.Variables),
		"unparsed", len(beforeDiags)+len(afterDiags))

	res := envdiff.Compare(before, after)

	// The restore file is only opened once both snapshots are parsed.
	restore, err := envdiff.OpenRestore(restorePath)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open restore file", err)
	}

	var report bytes.Buffer
	em := &envdiff.Emitter{Report: &report, Restore: restore}
	if err := em.Diagnostics(append(beforeDiags, afterDiags...)); err != nil {
		restore.Close()
		return WrapExitError(ExitFailure, "failed to write report", err)
	}
	if err := em.Emit(res); err != nil {
		restore.Close()
		return WrapExitError(ExitFailure, "failed to write restore file", err)
	}
	if err := restore.Close(); err != nil {
		return WrapExitError(ExitFailure, "failed to close restore file", err)
	}

	if _, err := cmd.OutOrStdout().Write(report.Bytes()); err != nil {
		return WrapExitError(ExitFailure, "failed to write report", err)
	}

	if opts.Verbose {
		if err := envdiff.WriteDiffs(cmd.ErrOrStderr(), res); err != nil {
			opts.Logger.Warn("failed to render diffs", "error", err)
		}
	}

	run := store.Run{Command: store.CommandCompare, Subject: snapshotPath}
	for _, c := range res.Changes {
		run.Entries = append(run.Entries, store.Entry{Action: string(c.Action), Subject: c.Subject()})
	}
	opts.record(cmd.Context(), cfg, run)
	return nil
}
