package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Example migration for testing
var exampleMigration = Migration{
	Version:     1,
	Description: "Add example test table",
	Up: []string{`
		CREATE TABLE IF NOT EXISTS test_table (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)
	`},
	Down: []string{`DROP TABLE IF EXISTS test_table`},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := NewManager()
	manager.Register(exampleMigration)

	require.NoError(t, manager.Apply(ctx, db))

	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = db.Exec("INSERT INTO test_table (id, name) VALUES (1, 'test')")
	require.NoError(t, err, "test table not created")

	require.NoError(t, manager.Rollback(ctx, db))

	version, err = Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	_, err = db.Exec("INSERT INTO test_table (id, name) VALUES (2, 'test')")
	assert.Error(t, err, "table should be dropped after rollback")
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := Default()
	require.NoError(t, manager.Apply(ctx, db))
	require.NoError(t, manager.Apply(ctx, db))

	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, manager.Latest(), version)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, len(recordStoreMigrations), count)
}

func TestApplyOutOfOrderRegistration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := NewManager()
	manager.Register(Migration{
		Version:     2,
		Description: "add column",
		Up:          []string{`ALTER TABLE test_table ADD COLUMN email TEXT`},
		Down:        []string{`ALTER TABLE test_table DROP COLUMN email`},
	})
	manager.Register(exampleMigration)

	require.NoError(t, manager.Apply(ctx, db))
	_, err := db.Exec("INSERT INTO test_table (id, name, email) VALUES (1, 'a', 'a@example.com')")
	assert.NoError(t, err)
}

func TestFailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	manager := NewManager()
	manager.Register(Migration{
		Version:     1,
		Description: "broken",
		Up:          []string{`CREATE TABLE ok_table (id INTEGER)`, `NOT VALID SQL`},
	})

	err := manager.Apply(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1")

	version, err := Version(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE name = 'ok_table'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows, "partial migration must be rolled back")
}

func TestRollbackWithNothingApplied(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, createVersionTable(ctx, db))

	err := Default().Rollback(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no migrations to rollback")
}
