package deduplication

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/steveyegge/fuzzygroup/internal/types"
	"github.com/steveyegge/fuzzygroup/internal/writer"
)

// RecordStore is the storage the job reads records from and writes groups to
type RecordStore interface {
	// ReadRecords returns every record of table, in table order, with only
	// the requested fields populated
	ReadRecords(ctx context.Context, table string, fields []string) ([]*types.Record, error)

	writer.RecordWriter
}

// Job runs one read-group-write pass over a table
type Job struct {
	store  RecordStore
	cfg    Config
	logger zerolog.Logger
}

// Compile-time check that Job implements Deduplicator
var _ Deduplicator = (*Job)(nil)

// NewJob creates a grouping job. cfg should already be validated.
func NewJob(store RecordStore, cfg Config) *Job {
	return &Job{store: store, cfg: cfg, logger: log.Logger}
}

// WithLogger sets the logger the job derives its run logger from
func (j *Job) WithLogger(logger zerolog.Logger) *Job {
	j.logger = logger
	return j
}

// Run reads every record, groups them with the configured policy, and writes
// the group ids back unless the job is a dry run.
//
// Storage failures are returned wrapped and end the run. The returned result
// is never nil and reports what was committed before the failure.
func (j *Job) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:  uuid.NewString(),
		Method: j.cfg.ParsedMethod(),
		DryRun: j.cfg.DryRun,
	}
	logger := j.logger.With().
		Str("run_id", result.RunID).
		Str("table", j.cfg.Table).
		Str("method", string(result.Method)).
		Logger()

	if result.Method == types.MethodUnknown {
		logger.Warn().Str("configured", j.cfg.Method).
			Msg("Unrecognized dedupe method, every value will get its own group")
	}

	records, err := j.store.ReadRecords(ctx, j.cfg.Table, []string{j.cfg.Field})
	if err != nil {
		return result, fmt.Errorf("failed to read records from %s: %w", j.cfg.Table, err)
	}
	logger.Debug().Int("records", len(records)).Msg("Read records")

	policy := j.cfg.Policy()
	result.Grouping = GroupRecords(policy, records, j.cfg.Field)
	stats := result.Grouping.Stats
	logger.Info().
		Int("records", stats.TotalRecords).
		Int("groups", stats.GroupsCreated).
		Int("skipped", stats.SkippedRecords).
		Int("comparisons", stats.Comparisons).
		Msg("Grouped records")

	if j.cfg.DryRun {
		return result, nil
	}

	w := writer.New(j.store, j.cfg.Table, j.cfg.GroupField, j.cfg.BatchSize).WithLogger(logger)
	progress, err := w.Write(ctx, result.Grouping.Assignments)
	result.Written = progress.Written
	result.Batches = progress.Batches
	if err != nil {
		return result, err
	}

	logger.Info().Int("written", result.Written).Int("batches", result.Batches).Msg("Assigned groups")
	return result, nil
}
