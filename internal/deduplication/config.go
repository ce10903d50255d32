package deduplication

import (
	"fmt"
	"os"
	"strconv"

	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

const (
	// DefaultFuzzyThreshold is used when the fuzzy threshold is unset or zero
	DefaultFuzzyThreshold = 3

	// MaxBatchSize is the most assignments the record store accepts per write
	MaxBatchSize = storage.MaxWriteBatch
)

// Config holds configuration for one grouping run
type Config struct {
	// Table is the record table to process
	Table string

	// Field supplies the text value to deduplicate
	Field string

	// GroupField receives the assigned group id ("Group 3")
	GroupField string

	// Method is the deduplication strategy: "exact", "fuzzy", or "ignore_case".
	// "case-insensitive" is accepted as an alias for "ignore_case".
	// Unrecognized names are not an error: nothing matches and every value
	// gets its own group.
	// Default: "exact"
	Method string

	// FuzzyThreshold is the maximum edit distance for the fuzzy method.
	// Zero means unset and falls back to DefaultFuzzyThreshold.
	// Default: 3
	FuzzyThreshold int

	// BatchSize is the number of assignments per write call
	// Default: 50, Range: 1-50
	BatchSize int

	// DryRun groups records without writing anything back
	// Default: false
	DryRun bool
}

// DefaultConfig returns the default grouping configuration
func DefaultConfig() Config {
	return Config{
		Method:         string(types.MethodExact),
		FuzzyThreshold: DefaultFuzzyThreshold,
		BatchSize:      MaxBatchSize,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.Field == "" {
		return fmt.Errorf("field is required")
	}
	if c.GroupField == "" {
		return fmt.Errorf("group_field is required")
	}
	if c.Field == c.GroupField {
		return fmt.Errorf("group_field must differ from field (both %q)", c.Field)
	}
	if c.FuzzyThreshold < 0 {
		return fmt.Errorf("fuzzy_threshold cannot be negative (got %d)", c.FuzzyThreshold)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive (got %d)", c.BatchSize)
	}
	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size too large (got %d, max %d)", c.BatchSize, MaxBatchSize)
	}
	return nil
}

// ParsedMethod resolves Method, mapping unknown names to types.MethodUnknown
func (c Config) ParsedMethod() types.Method {
	return types.ParseMethod(c.Method)
}

// EffectiveThreshold returns the fuzzy threshold with the default applied
func (c Config) EffectiveThreshold() int {
	if c.FuzzyThreshold == 0 {
		return DefaultFuzzyThreshold
	}
	return c.FuzzyThreshold
}

// Policy builds the matching policy for this configuration
func (c Config) Policy() Policy {
	return PolicyFor(c.ParsedMethod(), c.EffectiveThreshold())
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Table: %s, Field: %s, GroupField: %s, Method: %s, Threshold: %d, BatchSize: %d, DryRun: %t}",
		c.Table, c.Field, c.GroupField, c.Method, c.EffectiveThreshold(), c.BatchSize, c.DryRun,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - FG_TABLE: Record table to process
//   - FG_FIELD: Field containing the value to deduplicate
//   - FG_GROUP_FIELD: Field receiving the group id
//   - FG_DEDUPE_METHOD: exact, fuzzy, or ignore_case (default: exact)
//   - FG_FUZZY_THRESHOLD: Maximum edit distance for fuzzy matching (default: 3)
//   - FG_BATCH_SIZE: Assignments per write call (default: 50)
//   - FG_DRY_RUN: Group without writing (default: false)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any FG_* grouping variables that are set.
// It does not validate; callers validate once all sources are merged.
func ApplyEnv(cfg *Config) error {
	parseEnvString("FG_TABLE", &cfg.Table)
	parseEnvString("FG_FIELD", &cfg.Field)
	parseEnvString("FG_GROUP_FIELD", &cfg.GroupField)
	parseEnvString("FG_DEDUPE_METHOD", &cfg.Method)
	if err := parseEnvInt("FG_FUZZY_THRESHOLD", &cfg.FuzzyThreshold); err != nil {
		return err
	}
	if err := parseEnvInt("FG_BATCH_SIZE", &cfg.BatchSize); err != nil {
		return err
	}
	if err := parseEnvBool("FG_DRY_RUN", &cfg.DryRun); err != nil {
		return err
	}
	return nil
}

// parseEnvString copies a non-empty environment variable into dest
func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
