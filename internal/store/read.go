package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ListRuns returns the most recent runs without their entries, oldest
// first. limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, command, subject, tag FROM (
			SELECT seq, id, command, subject, tag
			FROM runs
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return scanRuns(rows)
}

// RunsTouching returns the runs with an entry for subject, oldest first.
func (s *Store) RunsTouching(ctx context.Context, subject string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.seq, r.id, r.command, r.subject, r.tag
		FROM runs r
		JOIN entries e ON e.run_id = r.id
		WHERE e.subject = ?
		ORDER BY r.seq ASC
	`, norm.NFC.String(subject))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return scanRuns(rows)
}

// ReadRun returns one run with its entries in order. It returns an error
// wrapping ErrRunNotFound if id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	var tag int64
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, id, command, subject, tag
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.Seq, &run.ID, &run.Command, &run.Subject, &tag)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	run.Tag = uint64(tag)

	rows, err := s.db.QueryContext(ctx, `
		SELECT action, subject
		FROM entries
		WHERE run_id = ?
		ORDER BY pos ASC
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	run.Entries = []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Action, &e.Subject); err != nil {
			return Run{}, fmt.Errorf("scan entry: %w", err)
		}
		run.Entries = append(run.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate entries: %w", err)
	}
	return run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var tag int64
		if err := rows.Scan(&run.Seq, &run.ID, &run.Command, &run.Subject, &tag); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Tag = uint64(tag)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
