// Package config loads the project configuration file, .fuzzygroup/fuzzygroup.yaml,
// and converts its sections into the typed configs the runners take.
//
// Precedence, lowest first: DefaultConfig, the YAML file, FG_* environment
// variables, command-line flags (applied by the CLI).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/fuzzygroup/internal/deduplication"
	"github.com/steveyegge/fuzzygroup/internal/enrich"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the project directory
const FileName = "fuzzygroup.yaml"

// Config mirrors the structure of fuzzygroup.yaml
type Config struct {
	// Database overrides database discovery when set
	Database string `yaml:"database,omitempty"`

	Grouping GroupingSection `yaml:"grouping"`
	Entities EntitySection   `yaml:"entities"`
	Spelling SpellSection    `yaml:"spelling"`
}

// GroupingSection configures the group command
type GroupingSection struct {
	Table          string `yaml:"table,omitempty"`
	Field          string `yaml:"field,omitempty"`
	GroupField     string `yaml:"group_field,omitempty"`
	Method         string `yaml:"method"`
	FuzzyThreshold int    `yaml:"fuzzy_threshold"`
	BatchSize      int    `yaml:"batch_size"`
}

// EntitySection configures the entities command
type EntitySection struct {
	Table      string `yaml:"table,omitempty"`
	QueryField string `yaml:"query_field,omitempty"`
	IDField    string `yaml:"id_field,omitempty"`
	EntityType string `yaml:"entity_type,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Delay      string `yaml:"delay"` // Duration string like "300ms"
}

// SpellSection configures the spellcheck command
type SpellSection struct {
	Table    string `yaml:"table,omitempty"`
	Field    string `yaml:"field,omitempty"`
	Language string `yaml:"language,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Delay    string `yaml:"delay"` // Duration string like "4s"
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	grouping := deduplication.DefaultConfig()
	return &Config{
		Grouping: GroupingSection{
			Method:         grouping.Method,
			FuzzyThreshold: grouping.FuzzyThreshold,
			BatchSize:      grouping.BatchSize,
		},
		Entities: EntitySection{
			EntityType: "Organization",
			Delay:      enrich.DefaultEntityInterval.String(),
		},
		Spelling: SpellSection{
			Language: "enUS",
			Delay:    enrich.DefaultSpellInterval.String(),
		},
	}
}

// Path returns where the config file lives for a project root
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ".fuzzygroup", FileName)
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides the enrichment settings from the environment.
// Grouping variables are applied by ToGroupingConfig.
//
// Environment variables:
//   - FG_KG_API_KEY: Knowledge Graph API key
//   - FG_JSPELL_API_KEY: RapidAPI key for the JSpell checker
//   - FG_ENTITY_DELAY: Pause between entity lookups (default: 300ms)
//   - FG_SPELL_DELAY: Pause between spell checks (default: 4s)
func ApplyEnv(cfg *Config) {
	setFromEnv("FG_KG_API_KEY", &cfg.Entities.APIKey)
	setFromEnv("FG_JSPELL_API_KEY", &cfg.Spelling.APIKey)
	setFromEnv("FG_ENTITY_DELAY", &cfg.Entities.Delay)
	setFromEnv("FG_SPELL_DELAY", &cfg.Spelling.Delay)
}

// Validate checks values that can be checked without knowing the command
func (c *Config) Validate() error {
	if c.Grouping.FuzzyThreshold < 0 {
		return fmt.Errorf("grouping.fuzzy_threshold cannot be negative (got %d)", c.Grouping.FuzzyThreshold)
	}
	if c.Grouping.BatchSize < 0 || c.Grouping.BatchSize > deduplication.MaxBatchSize {
		return fmt.Errorf("grouping.batch_size must be between 1 and %d (got %d)",
			deduplication.MaxBatchSize, c.Grouping.BatchSize)
	}
	if _, err := parseDelay(c.Entities.Delay, enrich.DefaultEntityInterval); err != nil {
		return fmt.Errorf("entities.delay: %w", err)
	}
	if _, err := parseDelay(c.Spelling.Delay, enrich.DefaultSpellInterval); err != nil {
		return fmt.Errorf("spelling.delay: %w", err)
	}
	return nil
}

// ToGroupingConfig converts the grouping section, then applies FG_* grouping
// variables on top. A zero batch size means the maximum.
func (c *Config) ToGroupingConfig() (deduplication.Config, error) {
	cfg := deduplication.Config{
		Table:          c.Grouping.Table,
		Field:          c.Grouping.Field,
		GroupField:     c.Grouping.GroupField,
		Method:         c.Grouping.Method,
		FuzzyThreshold: c.Grouping.FuzzyThreshold,
		BatchSize:      c.Grouping.BatchSize,
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = deduplication.MaxBatchSize
	}
	if err := deduplication.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ToEntityConfig converts the entities section
func (c *Config) ToEntityConfig() (enrich.EntityConfig, error) {
	interval, err := parseDelay(c.Entities.Delay, enrich.DefaultEntityInterval)
	if err != nil {
		return enrich.EntityConfig{}, fmt.Errorf("entities.delay: %w", err)
	}
	return enrich.EntityConfig{
		Table:      c.Entities.Table,
		QueryField: c.Entities.QueryField,
		IDField:    c.Entities.IDField,
		EntityType: c.Entities.EntityType,
		Interval:   interval,
	}, nil
}

// ToSpellConfig converts the spelling section
func (c *Config) ToSpellConfig() (enrich.SpellConfig, error) {
	interval, err := parseDelay(c.Spelling.Delay, enrich.DefaultSpellInterval)
	if err != nil {
		return enrich.SpellConfig{}, fmt.Errorf("spelling.delay: %w", err)
	}
	return enrich.SpellConfig{
		Table:    c.Spelling.Table,
		Field:    c.Spelling.Field,
		Interval: interval,
	}, nil
}

// WriteStarter writes ExampleConfigFile to path unless a file is already there.
// It reports whether it wrote anything.
func WriteStarter(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ExampleConfigFile()), 0644); err != nil {
		return false, fmt.Errorf("writing config file: %w", err)
	}
	return true, nil
}

// ExampleConfigFile returns the starter configuration written by init
func ExampleConfigFile() string {
	return `# fuzzygroup configuration
# Command-line flags override these values, and FG_* environment
# variables (or a .env file) override the file.

# Database path; leave unset to use .fuzzygroup/*.db
# database: .fuzzygroup/records.db

grouping:
  # table: contacts
  # field: Company
  # group_field: Duplicate Group
  method: exact           # exact, fuzzy, or ignore_case
  fuzzy_threshold: 3      # maximum edit distance for fuzzy
  batch_size: 50          # assignments per write (max 50)

entities:
  # table: companies
  # query_field: Name
  # id_field: KG ID
  entity_type: Organization
  delay: 300ms            # pause between lookups
  # api_key is read from FG_KG_API_KEY when unset

spelling:
  # table: notes
  # field: Notes
  language: enUS
  delay: 4s               # pause between requests
  # api_key is read from FG_JSPELL_API_KEY when unset
`
}

// parseDelay parses a duration string, using def when s is empty
func parseDelay(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative (got %s)", s)
	}
	return d, nil
}

// setFromEnv copies a non-empty environment variable into dest
func setFromEnv(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}
