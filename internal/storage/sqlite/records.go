package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

// CreateTable creates an empty record table
func (s *SQLiteStorage) CreateTable(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("table name is required")
	}
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO record_tables (name, created_at) VALUES (?, ?)", name, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

// DropTable deletes a record table and all of its records
func (s *SQLiteStorage) DropTable(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM record_tables WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return nil
}

// ListTables returns every record table with its record count, by name
func (s *SQLiteStorage) ListTables(ctx context.Context) ([]*types.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.created_at, COUNT(r.id)
		FROM record_tables t
		LEFT JOIN records r ON r.table_name = t.name
		GROUP BY t.name, t.created_at
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*types.TableInfo
	for rows.Next() {
		var info types.TableInfo
		if err := rows.Scan(&info.Name, scanTime{&info.CreatedAt}, &info.Records); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &info)
	}
	return tables, rows.Err()
}

// InsertRecords appends records to the end of table, preserving their order.
// All records are inserted or none are.
func (s *SQLiteStorage) InsertRecords(ctx context.Context, table string, records []*types.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireTable(ctx, tx, table); err != nil {
		return err
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM records WHERE table_name = ?", table).Scan(&next); err != nil {
		return fmt.Errorf("failed to get next position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (table_name, id, position, fields, updated_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("record id is required")
		}
		fields, err := encodeFields(rec.Fields)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		next++
		if _, err := stmt.ExecContext(ctx, table, rec.ID, next, fields, now); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// ReadRecords returns every record of table in insertion order. Only the
// named fields are populated; an empty fields list returns all of them.
func (s *SQLiteStorage) ReadRecords(ctx context.Context, table string, fields []string) ([]*types.Record, error) {
	if err := requireTable(ctx, s.db, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, fields FROM records WHERE table_name = ? ORDER BY position", table)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*types.Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		all, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		records = append(records, &types.Record{ID: id, Fields: selectFields(all, fields)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// WriteRecords merges each update's fields into its record. The batch is
// applied in one transaction: either every update lands or none does.
// Batches over MaxWriteBatch are rejected.
func (s *SQLiteStorage) WriteRecords(ctx context.Context, table string, updates []types.RecordUpdate) error {
	if len(updates) > MaxWriteBatch {
		return fmt.Errorf("%w: %d updates (max %d)", ErrBatchTooLarge, len(updates), MaxWriteBatch)
	}
	if len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireTable(ctx, tx, table); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, u := range updates {
		var raw string
		err := tx.QueryRowContext(ctx,
			"SELECT fields FROM records WHERE table_name = ? AND id = ?", table, u.ID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, u.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", u.ID, err)
		}

		fields, err := decodeFields(raw)
		if err != nil {
			return fmt.Errorf("record %s: %w", u.ID, err)
		}
		for k, v := range u.Fields {
			fields[k] = v
		}
		encoded, err := encodeFields(fields)
		if err != nil {
			return fmt.Errorf("record %s: %w", u.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE records SET fields = ?, updated_at = ? WHERE table_name = ? AND id = ?",
			encoded, now, table, u.ID); err != nil {
			return fmt.Errorf("failed to update record %s: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func requireTable(ctx context.Context, q queryer, table string) error {
	var name string
	err := q.QueryRowContext(ctx, "SELECT name FROM record_tables WHERE name = ?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStorage) tableExists(ctx context.Context, table string) (bool, error) {
	err := requireTable(ctx, s.db, table)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	return err == nil, err
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}
	return string(data), nil
}

func decodeFields(raw string) (map[string]any, error) {
	fields := map[string]any{}
	if raw == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return fields, nil
}

func selectFields(all map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return all
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out
}
