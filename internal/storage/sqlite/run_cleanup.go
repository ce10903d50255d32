package sqlite

import (
	"context"
	"fmt"
	"time"
)

// PruneRuns deletes runs that started before cutoff, except the keep newest
// runs of each table. Deletions are batched (batchSize runs per statement).
func (s *SQLiteStorage) PruneRuns(ctx context.Context, cutoff time.Time, keep, batchSize int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep cannot be negative")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	totalDeleted := 0
	for {
		select {
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		default:
		}

		result, err := s.db.ExecContext(ctx, `
			DELETE FROM runs
			WHERE id IN (
				SELECT r.id FROM runs r
				WHERE r.started_at < ?
				AND (
					SELECT COUNT(*) FROM runs n
					WHERE n.table_name = r.table_name
					AND (n.started_at > r.started_at OR (n.started_at = r.started_at AND n.id < r.id))
				) >= ?
				ORDER BY r.started_at ASC
				LIMIT ?
			)
		`, cutoff.UTC(), keep, batchSize)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to prune runs: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		totalDeleted += int(rowsAffected)

		if rowsAffected < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}
