package sqlite

import (
	"context"
	"fmt"

	"github.com/steveyegge/fuzzygroup/internal/types"
)

// RecordRun stores a finished run in the run history
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *types.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, table_name, kind, method, records, groups_created, written,
			status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Table, string(run.Kind), run.Method, run.Records, run.Groups, run.Written,
		string(run.Status), run.Error, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// GetRuns returns the most recent runs, newest first. An empty table
// returns runs for every table; limit <= 0 means no limit.
func (s *SQLiteStorage) GetRuns(ctx context.Context, table string, limit int) ([]*types.Run, error) {
	query := `
		SELECT id, table_name, kind, method, records, groups_created, written,
			status, error, started_at, finished_at
		FROM runs
		WHERE (? = '' OR table_name = ?)
		ORDER BY started_at DESC, id
	`
	args := []any{table, table}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		var r types.Run
		if err := rows.Scan(&r.ID, &r.Table, &r.Kind, &r.Method, &r.Records, &r.Groups, &r.Written,
			&r.Status, &r.Error, scanTime{&r.StartedAt}, scanTime{&r.FinishedAt}); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
