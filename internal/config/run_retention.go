package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RunRetentionConfig controls pruning of the run history
type RunRetentionConfig struct {
	// RetentionDays is how old a run must be before it can be pruned
	// Default: 90, Range: 1-3650
	RetentionDays int

	// KeepRuns is the number of newest runs kept per table regardless of age
	// Default: 20, Range: 0-10000
	KeepRuns int

	// BatchSize is the number of runs deleted per statement
	// Default: 500, Range: 1-10000
	BatchSize int
}

// DefaultRunRetentionConfig returns the default run history retention
func DefaultRunRetentionConfig() RunRetentionConfig {
	return RunRetentionConfig{
		RetentionDays: 90,
		KeepRuns:      20,
		BatchSize:     500,
	}
}

// Validate checks if the configuration has valid values
func (c RunRetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 3650 {
		return fmt.Errorf("retention_days must be between 1 and 3650 (got %d)", c.RetentionDays)
	}
	if c.KeepRuns < 0 || c.KeepRuns > 10000 {
		return fmt.Errorf("keep_runs must be between 0 and 10000 (got %d)", c.KeepRuns)
	}
	if c.BatchSize < 1 || c.BatchSize > 10000 {
		return fmt.Errorf("batch_size must be between 1 and 10000 (got %d)", c.BatchSize)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c RunRetentionConfig) String() string {
	return fmt.Sprintf("RunRetentionConfig{RetentionDays: %d, KeepRuns: %d, BatchSize: %d}",
		c.RetentionDays, c.KeepRuns, c.BatchSize)
}

// Cutoff returns the time before which runs are eligible for pruning
func (c RunRetentionConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.RetentionDays)
}

// RunRetentionConfigFromEnv creates a RunRetentionConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - FG_RUN_RETENTION_DAYS: Age in days before a run can be pruned (default: 90)
//   - FG_RUN_KEEP: Newest runs kept per table (default: 20)
//   - FG_RUN_CLEANUP_BATCH_SIZE: Runs deleted per statement (default: 500)
//
// Returns an error if any environment variable has an invalid value.
func RunRetentionConfigFromEnv() (RunRetentionConfig, error) {
	cfg := DefaultRunRetentionConfig()

	if err := parseEnvInt("FG_RUN_RETENTION_DAYS", &cfg.RetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FG_RUN_KEEP", &cfg.KeepRuns); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FG_RUN_CLEANUP_BATCH_SIZE", &cfg.BatchSize); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid run retention configuration from environment: %w", err)
	}
	return cfg, nil
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
