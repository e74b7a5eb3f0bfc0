package store

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// WriteRun inserts run and its entries in one transaction. Writing the
// same run ID twice is a no-op. run.Seq is ignored; SQLite assigns it.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, command, subject, tag)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Command,
		norm.NFC.String(run.Subject),
		int64(run.Tag),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write run: %w", err)
	} else if n == 0 {
		return nil
	}

	for i, e := range run.Entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (run_id, pos, action, subject)
			VALUES (?, ?, ?, ?)
		`,
			run.ID,
			i,
			e.Action,
			norm.NFC.String(e.Subject),
		)
		if err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
