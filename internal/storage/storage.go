package storage

import (
	"context"
	"time"

	"github.com/steveyegge/fuzzygroup/internal/storage/sqlite"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

// MaxWriteBatch is the most record updates one WriteRecords call accepts
const MaxWriteBatch = sqlite.MaxWriteBatch

// Storage errors, re-exported so callers need not import a backend
var (
	ErrTableNotFound  = sqlite.ErrTableNotFound
	ErrTableExists    = sqlite.ErrTableExists
	ErrRecordNotFound = sqlite.ErrRecordNotFound
	ErrBatchTooLarge  = sqlite.ErrBatchTooLarge
)

// Storage defines the interface for record storage backends
type Storage interface {
	// Tables
	CreateTable(ctx context.Context, name string) error
	DropTable(ctx context.Context, name string) error
	ListTables(ctx context.Context) ([]*types.TableInfo, error)

	// Records
	InsertRecords(ctx context.Context, table string, records []*types.Record) error
	ReadRecords(ctx context.Context, table string, fields []string) ([]*types.Record, error)
	WriteRecords(ctx context.Context, table string, updates []types.RecordUpdate) error

	// Run history
	RecordRun(ctx context.Context, run *types.Run) error
	GetRuns(ctx context.Context, table string, limit int) ([]*types.Run, error)
	PruneRuns(ctx context.Context, cutoff time.Time, keep, batchSize int) (int, error)

	// Lifecycle
	Close() error
}

// Compile-time check that the SQLite backend implements Storage
var _ Storage = (*sqlite.SQLiteStorage)(nil)

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".fuzzygroup/records.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: DefaultDBPath,
	}
}

// NewStorage opens the SQLite record store, applying schema migrations
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	path := cfg.Path
	if path == "" {
		path = DefaultDBPath
	}

	return sqlite.New(ctx, path)
}
