package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ProjectDir is the per-project directory holding the record database
	ProjectDir = ".fuzzygroup"

	// DefaultDBPath is used when no database is configured or discovered
	DefaultDBPath = ProjectDir + "/records.db"
)

// DiscoverDatabase looks for .fuzzygroup/*.db in the current directory only.
// Returns the absolute path to the database file, or an error if not found.
//
// FG_DB_PATH takes precedence and is used as-is (":memory:" included).
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("FG_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return discoverDatabaseInDir(dir)
}

// discoverDatabaseInDir checks for .fuzzygroup/*.db in dir. It does not walk
// up the tree, so a nested project never picks up its parent's records.
func discoverDatabaseInDir(dir string) (string, error) {
	projectDir := filepath.Join(dir, ProjectDir)

	if info, err := os.Stat(projectDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(projectDir)
		if err == nil {
			// ReadDir sorts by name, so the choice is stable
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
					absPath, err := filepath.Abs(filepath.Join(projectDir, entry.Name()))
					if err != nil {
						return "", fmt.Errorf("failed to get absolute path: %w", err)
					}
					return absPath, nil
				}
			}
		}
	}

	return "", fmt.Errorf(
		"no %s/*.db found in %s\n"+
			"  Run 'fuzzygroup init' to create a record store in this directory\n"+
			"  Or use --db flag to specify database path explicitly",
		ProjectDir, dir)
}

// GetProjectRoot returns the directory containing the .fuzzygroup directory
// that holds dbPath.
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != ProjectDir {
		return "", fmt.Errorf("database must be in a %s/ directory, got: %s", ProjectDir, dbPath)
	}

	return filepath.Dir(dbDir), nil
}

// InitProject creates the .fuzzygroup directory in projectDir and returns the
// path the database should be created at. The database itself is created on
// first connection.
func InitProject(projectDir, projectName string) (string, error) {
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return "", fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	dir := filepath.Join(projectDir, ProjectDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", ProjectDir, err)
	}

	dbName := projectName
	if dbName == "" {
		dbName = filepath.Base(projectDir)
	}
	if !strings.HasSuffix(dbName, ".db") {
		dbName += ".db"
	}

	dbPath := filepath.Join(dir, dbName)
	if _, err := os.Stat(dbPath); err == nil {
		return "", fmt.Errorf("database already exists: %s", dbPath)
	}

	return dbPath, nil
}
