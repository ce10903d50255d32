// Package writer applies group assignments back to the record store in
// bounded, strictly sequential batches.
package writer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

// MaxBatchSize is the record store's per-call update limit.
const MaxBatchSize = storage.MaxWriteBatch

// RecordWriter is the storage operation the writer needs.
// A call either applies every update in the batch or none of them.
type RecordWriter interface {
	WriteRecords(ctx context.Context, table string, updates []types.RecordUpdate) error
}

// Progress reports how much of a Write call was committed.
type Progress struct {
	Written int // assignments committed
	Batches int // successful write calls
}

// AssignmentWriter writes group ids into a field of each assigned record.
//
// Batches are issued one at a time; batch n+1 is not started until batch n
// has returned. The first failing batch aborts the write. Earlier batches
// stay committed and nothing is retried.
type AssignmentWriter struct {
	store     RecordWriter
	table     string
	field     string
	batchSize int
	logger    zerolog.Logger
}

// New creates a writer for table that stores group ids in field.
// batchSize is clamped to 1..MaxBatchSize.
func New(store RecordWriter, table, field string, batchSize int) *AssignmentWriter {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &AssignmentWriter{
		store:     store,
		table:     table,
		field:     field,
		batchSize: batchSize,
		logger:    log.Logger,
	}
}

// WithLogger sets the logger used for per-batch diagnostics.
func (w *AssignmentWriter) WithLogger(logger zerolog.Logger) *AssignmentWriter {
	w.logger = logger
	return w
}

// Write stores assignments in order. On error, Progress says how many
// assignments were committed before the failing batch.
func (w *AssignmentWriter) Write(ctx context.Context, assignments []types.Assignment) (Progress, error) {
	var p Progress

	for start := 0; start < len(assignments); start += w.batchSize {
		if err := ctx.Err(); err != nil {
			return p, fmt.Errorf("write canceled after %d assignments: %w", p.Written, err)
		}

		end := min(start+w.batchSize, len(assignments))
		batch := w.updates(assignments[start:end])

		if err := w.store.WriteRecords(ctx, w.table, batch); err != nil {
			w.logger.Error().Err(err).
				Int("batch", p.Batches+1).
				Int("committed", p.Written).
				Msg("Batch write failed, aborting")
			return p, fmt.Errorf("failed to write batch %d (assignments %d-%d): %w",
				p.Batches+1, start+1, end, err)
		}

		p.Written += len(batch)
		p.Batches++
		w.logger.Debug().Int("batch", p.Batches).Int("size", len(batch)).Msg("Wrote batch")
	}

	return p, nil
}

func (w *AssignmentWriter) updates(assignments []types.Assignment) []types.RecordUpdate {
	updates := make([]types.RecordUpdate, len(assignments))
	for i, a := range assignments {
		updates[i] = types.RecordUpdate{
			ID:     a.RecordID,
			Fields: map[string]any{w.field: a.GroupID.String()},
		}
	}
	return updates
}
