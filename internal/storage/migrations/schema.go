package migrations

// recordStoreMigrations is the schema history of the record store.
var recordStoreMigrations = []Migration{
	{
		Version:     1,
		Description: "record tables and records",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS record_tables (
				name TEXT PRIMARY KEY,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS records (
				table_name TEXT NOT NULL,
				id TEXT NOT NULL,
				position INTEGER NOT NULL,
				fields TEXT NOT NULL DEFAULT '{}',
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (table_name, id),
				FOREIGN KEY (table_name) REFERENCES record_tables(name) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_records_position ON records(table_name, position)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_records_position`,
			`DROP TABLE IF EXISTS records`,
			`DROP TABLE IF EXISTS record_tables`,
		},
	},
	{
		Version:     2,
		Description: "run history",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				table_name TEXT NOT NULL,
				kind TEXT NOT NULL,
				method TEXT NOT NULL DEFAULT '',
				records INTEGER NOT NULL DEFAULT 0,
				groups_created INTEGER NOT NULL DEFAULT 0,
				written INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				error TEXT NOT NULL DEFAULT '',
				started_at DATETIME NOT NULL,
				finished_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_runs_table ON runs(table_name, started_at)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS idx_runs_table`,
			`DROP TABLE IF EXISTS runs`,
		},
	},
}
