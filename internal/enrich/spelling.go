package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/steveyegge/fuzzygroup/internal/spellcheck"
)

// DefaultSpellInterval paces spell check requests
const DefaultSpellInterval = 4 * time.Second

// SpellChecker returns the misspellings found in text. A nil slice means the
// checker had nothing to say about it.
type SpellChecker interface {
	Check(ctx context.Context, text string) ([]spellcheck.Element, error)
}

// SpellConfig selects the field a spelling run corrects in place
type SpellConfig struct {
	Table    string
	Field    string
	Interval time.Duration
}

// Validate checks the configuration
func (c SpellConfig) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.Field == "" {
		return fmt.Errorf("field is required")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative (got %s)", c.Interval)
	}
	return nil
}

// SpellRunner replaces misspelled words in a field with the checker's first
// suggestion
type SpellRunner struct {
	store   RecordStore
	checker SpellChecker
	cfg     SpellConfig
	logger  zerolog.Logger
}

// NewSpellRunner creates a spelling runner
func NewSpellRunner(store RecordStore, checker SpellChecker, cfg SpellConfig) *SpellRunner {
	return &SpellRunner{store: store, checker: checker, cfg: cfg, logger: log.Logger}
}

// WithLogger sets the logger the runner derives its run logger from
func (r *SpellRunner) WithLogger(logger zerolog.Logger) *SpellRunner {
	r.logger = logger
	return r
}

// Run checks every non-empty value. Any checker or storage error aborts the
// run; corrections already written stay.
func (r *SpellRunner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spelling config: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := r.logger.With().
		Str("run_id", result.RunID).
		Str("table", r.cfg.Table).
		Str("kind", "spellcheck").
		Logger()

	records, err := r.store.ReadRecords(ctx, r.cfg.Table, []string{r.cfg.Field})
	if err != nil {
		return result, fmt.Errorf("failed to read records from %s: %w", r.cfg.Table, err)
	}
	result.Records = len(records)

	var tasks []Task
	for _, rec := range records {
		text := rec.Text(r.cfg.Field)
		if queryText(rec, r.cfg.Field) == "" {
			result.Skipped++
			continue
		}
		id := rec.ID
		tasks = append(tasks, Task{
			ID: id,
			Do: func(ctx context.Context) error {
				elements, err := r.checker.Check(ctx, text)
				if err != nil {
					return err
				}
				if elements == nil {
					result.Skipped++
					return nil
				}
				corrected := spellcheck.ApplyCorrections(text, elements)
				if err := writeField(ctx, r.store, r.cfg.Table, id, r.cfg.Field, corrected); err != nil {
					return fmt.Errorf("failed to write correction: %w", err)
				}
				if corrected != text {
					logger.Debug().Str("record", id).Str("from", text).Str("to", corrected).Msg("Corrected")
				}
				result.Written++
				return nil
			},
		})
	}

	queue := NewQueue(r.cfg.Interval, FailFast).WithLogger(logger)
	sum, err := queue.Run(ctx, tasks)
	result.Failed = sum.Failed()
	if err != nil {
		if errors.Is(err, ErrAborted) {
			result.Failed++
		}
		return result, err
	}

	logger.Info().
		Int("records", result.Records).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Msg("Spell check finished")
	return result, nil
}
