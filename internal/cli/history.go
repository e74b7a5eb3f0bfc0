package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cdenv/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit   int
	Subject string
}

// RunList is the history output for several runs.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// WriteText prints one line per run.
func (l RunList) WriteText(w io.Writer) error {
	if len(l.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	for _, r := range l.Runs {
		if _, err := fmt.Fprintf(w, "%s  %-7s  %s\n", r.ID, r.Command, r.Subject); err != nil {
			return err
		}
	}
	return nil
}

// RunDetail is the history output for one run.
type RunDetail struct {
	Run store.Run `json:"run"`
}

// WriteText prints the run header followed by its entries.
func (d RunDetail) WriteText(w io.Writer) error {
	r := d.Run
	if _, err := fmt.Fprintf(w, "Run:     %s\nCommand: %s\nSubject: %s\n", r.ID, r.Command, r.Subject); err != nil {
		return err
	}
	if r.Tag != 0 {
		if _, err := fmt.Fprintf(w, "Tag:     %d\n", r.Tag); err != nil {
			return err
		}
	}
	for _, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "  %-7s %s\n", e.Action, e.Subject); err != nil {
			return err
		}
	}
	return nil
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [RUN-ID]",
		Short: "Show runs recorded in the journal",
		Long: `Show list and compare runs recorded in the journal.

Without RUN-ID, the most recent runs are listed oldest first. With RUN-ID,
the files unloaded and loaded, or the names changed, by that run are shown.

Examples:
  cdenv history --journal ~/.local/state/cdenv/journal.db
  cdenv history --subject /home/me/src/.cdenv.sh
  cdenv history 0190a6e2-7c1e-7d3a-9b52-6f1c2d3e4f50 --format json`,
		Args:          rangeArgs(0, 1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "only list runs that loaded, unloaded or changed this subject")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Journal == "" {
		_ = out.Error(CodeNoJournal, "no journal configured", nil)
		return NewExitError(ExitCommandError, "no journal configured (use --journal or CDENV_JOURNAL)")
	}

	st, err := store.Open(cfg.Journal)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open journal", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			opts.Logger.Warn("error closing journal", "error", err)
		}
	}()

	if len(args) == 1 {
		run, err := st.ReadRun(ctx, args[0])
		if errors.Is(err, store.ErrRunNotFound) {
			_ = out.Error(CodeRunNotFound, "run not found", map[string]string{"id": args[0]})
			return WrapExitError(ExitFailure, "run not found", err)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read run", err)
		}
		return out.Success(RunDetail{Run: run})
	}

	var runs []store.Run
	if opts.Subject != "" {
		runs, err = st.RunsTouching(ctx, opts.Subject)
		if err == nil && opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[len(runs)-opts.Limit:]
		}
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return out.Success(RunList{Runs: runs})
}
