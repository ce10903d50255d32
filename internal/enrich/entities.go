package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultEntityInterval paces Knowledge Graph lookups
const DefaultEntityInterval = 300 * time.Millisecond

// EntityLookup resolves free text to an entity id, "" when nothing matches
type EntityLookup interface {
	Lookup(ctx context.Context, query, entityType string) (string, error)
}

// EntityConfig selects the fields an entity run reads and writes
type EntityConfig struct {
	Table      string
	QueryField string
	IDField    string
	EntityType string
	Interval   time.Duration
}

// Validate checks the configuration
func (c EntityConfig) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.QueryField == "" {
		return fmt.Errorf("query field is required")
	}
	if c.IDField == "" {
		return fmt.Errorf("id field is required")
	}
	if c.QueryField == c.IDField {
		return fmt.Errorf("id field must differ from query field %q", c.QueryField)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative (got %s)", c.Interval)
	}
	return nil
}

// EntityRunner looks up an entity id for every record and stores the ones found
type EntityRunner struct {
	store  RecordStore
	lookup EntityLookup
	cfg    EntityConfig
	logger zerolog.Logger
}

// NewEntityRunner creates an entity runner
func NewEntityRunner(store RecordStore, lookup EntityLookup, cfg EntityConfig) *EntityRunner {
	return &EntityRunner{store: store, lookup: lookup, cfg: cfg, logger: log.Logger}
}

// WithLogger sets the logger the runner derives its run logger from
func (r *EntityRunner) WithLogger(logger zerolog.Logger) *EntityRunner {
	r.logger = logger
	return r
}

// Run resolves every non-empty query field. A failed lookup is logged and
// the record is left alone; records with no match are not written.
func (r *EntityRunner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid entity config: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := r.logger.With().
		Str("run_id", result.RunID).
		Str("table", r.cfg.Table).
		Str("kind", "entities").
		Logger()

	records, err := r.store.ReadRecords(ctx, r.cfg.Table, []string{r.cfg.QueryField, r.cfg.IDField})
	if err != nil {
		return result, fmt.Errorf("failed to read records from %s: %w", r.cfg.Table, err)
	}
	result.Records = len(records)

	var tasks []Task
	for _, rec := range records {
		query := queryText(rec, r.cfg.QueryField)
		if query == "" {
			result.Skipped++
			continue
		}
		id := rec.ID
		tasks = append(tasks, Task{
			ID: id,
			Do: func(ctx context.Context) error {
				entityID, err := r.lookup.Lookup(ctx, query, r.cfg.EntityType)
				if err != nil {
					return err
				}
				if entityID == "" {
					logger.Debug().Str("record", id).Str("query", query).Msg("No entity found")
					return nil
				}
				if err := writeField(ctx, r.store, r.cfg.Table, id, r.cfg.IDField, entityID); err != nil {
					return fmt.Errorf("failed to write entity id: %w", err)
				}
				result.Written++
				return nil
			},
		})
	}

	queue := NewQueue(r.cfg.Interval, ContinueOnError).WithLogger(logger)
	sum, err := queue.Run(ctx, tasks)
	result.Failed = sum.Failed()
	if err != nil {
		return result, err
	}

	logger.Info().
		Int("records", result.Records).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Entity resolution finished")
	return result, nil
}
