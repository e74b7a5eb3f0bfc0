package cli

import (
	"context"

	"github.com/roach88/cdenv/internal/config"
	"github.com/roach88/cdenv/internal/store"
)

// record appends run to the configured journal. Failures are logged and
// never change the command's output or exit code.
func (o *RootOptions) record(ctx context.Context, cfg config.Config, run store.Run) {
	if cfg.Journal == "" {
		return
	}
	run.ID = o.IDs.Generate()

	st, err := store.Open(cfg.Journal)
	if err != nil {
		o.Logger.Warn("journal unavailable", "path", cfg.Journal, "error", err)
		return
	}
	defer func() {
		if err := st.Close(); err != nil {
			o.Logger.Warn("error closing journal", "error", err)
		}
	}()

	if err := st.WriteRun(ctx, run); err != nil {
		o.Logger.Warn("journal write failed", "run", run.ID, "error", err)
		return
	}
	o.Logger.Debug("run recorded", "run", run.ID, "entries", len(run.Entries))
}

// entries turns one action applied to every subject into journal entries.
func entries(action string, subjects []string) []store.Entry {
	out := make([]store.Entry, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, store.Entry{Action: action, Subject: s})
	}
	return out
}
