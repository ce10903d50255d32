package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/steveyegge/fuzzygroup/internal/storage/migrations"
)

// MaxWriteBatch is the most record updates a single WriteRecords call accepts.
const MaxWriteBatch = 50

var (
	// ErrTableNotFound is returned when a record table does not exist
	ErrTableNotFound = errors.New("table not found")

	// ErrTableExists is returned when creating a table that already exists
	ErrTableExists = errors.New("table already exists")

	// ErrRecordNotFound is returned when an update targets a missing record
	ErrRecordNotFound = errors.New("record not found")

	// ErrBatchTooLarge is returned when a write exceeds MaxWriteBatch updates
	ErrBatchTooLarge = errors.New("batch too large")
)

// SQLiteStorage is the SQLite-backed record store
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the record store at path and applies
// pending schema migrations. ":memory:" opens a private in-memory store.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps pragmas and in-memory databases consistent, and
	// nothing here issues concurrent queries.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", p, err)
		}
	}

	if err := migrations.Default().Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path}, nil
}

// Path returns the database path the store was opened with
func (s *SQLiteStorage) Path() string { return s.path }

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
