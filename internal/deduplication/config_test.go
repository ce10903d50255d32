package deduplication

import (
	"testing"

	"github.com/steveyegge/fuzzygroup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Table = "contacts"
	cfg.Field = "Company"
	cfg.GroupField = "Duplicate Group"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing table", mutate: func(c *Config) { c.Table = "" }, errorMsg: "table is required"},
		{name: "missing field", mutate: func(c *Config) { c.Field = "" }, errorMsg: "field is required"},
		{name: "missing group field", mutate: func(c *Config) { c.GroupField = "" }, errorMsg: "group_field is required"},
		{name: "same field", mutate: func(c *Config) { c.GroupField = c.Field }, errorMsg: "must differ"},
		{name: "negative threshold", mutate: func(c *Config) { c.FuzzyThreshold = -1 }, errorMsg: "cannot be negative"},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, errorMsg: "batch_size must be positive"},
		{name: "batch over limit", mutate: func(c *Config) { c.BatchSize = 51 }, errorMsg: "batch_size too large"},
		{name: "zero threshold is allowed", mutate: func(c *Config) { c.FuzzyThreshold = 0 }},
		{name: "unknown method is allowed", mutate: func(c *Config) { c.Method = "soundex" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestEffectiveThreshold(t *testing.T) {
	cfg := validConfig()

	cfg.FuzzyThreshold = 0
	assert.Equal(t, DefaultFuzzyThreshold, cfg.EffectiveThreshold())

	cfg.FuzzyThreshold = 1
	assert.Equal(t, 1, cfg.EffectiveThreshold())

	cfg.Method = "fuzzy"
	cfg.FuzzyThreshold = 0
	assert.Equal(t, 3, cfg.Policy().Threshold())
}

func TestConfigMethodAliases(t *testing.T) {
	tests := []struct {
		method string
		want   types.Method
	}{
		{"exact", types.MethodExact},
		{"fuzzy", types.MethodFuzzy},
		{"ignore_case", types.MethodIgnoreCase},
		{"case-insensitive", types.MethodIgnoreCase},
		{" Fuzzy ", types.MethodFuzzy},
		{"", types.MethodUnknown},
		{"levenshtein", types.MethodUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			cfg := validConfig()
			cfg.Method = tt.method
			assert.Equal(t, tt.want, cfg.ParsedMethod())
			assert.Equal(t, tt.want, cfg.Policy().Method())
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"FG_TABLE":           "contacts",
				"FG_FIELD":           "Company",
				"FG_GROUP_FIELD":     "Group",
				"FG_DEDUPE_METHOD":   "fuzzy",
				"FG_FUZZY_THRESHOLD": "2",
				"FG_BATCH_SIZE":      "25",
				"FG_DRY_RUN":         "true",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "contacts", cfg.Table)
				assert.Equal(t, "Company", cfg.Field)
				assert.Equal(t, "Group", cfg.GroupField)
				assert.Equal(t, "fuzzy", cfg.Method)
				assert.Equal(t, 2, cfg.FuzzyThreshold)
				assert.Equal(t, 25, cfg.BatchSize)
				assert.True(t, cfg.DryRun)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name:    "invalid threshold",
			envVars: map[string]string{"FG_FUZZY_THRESHOLD": "three"},
			wantErr: true,
		},
		{
			name:    "invalid dry run",
			envVars: map[string]string{"FG_DRY_RUN": "maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"FG_TABLE", "FG_FIELD", "FG_GROUP_FIELD", "FG_DEDUPE_METHOD",
				"FG_FUZZY_THRESHOLD", "FG_BATCH_SIZE", "FG_DRY_RUN"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := ConfigFromEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := validConfig()
	cfg.Method = "fuzzy"
	s := cfg.String()
	assert.Contains(t, s, "Table: contacts")
	assert.Contains(t, s, "Method: fuzzy")
	assert.Contains(t, s, "Threshold: 3")
}
