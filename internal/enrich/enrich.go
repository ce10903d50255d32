package enrich

import (
	"context"
	"strings"

	"github.com/steveyegge/fuzzygroup/internal/types"
)

// RecordStore is the storage an enrichment run reads from and writes to
type RecordStore interface {
	ReadRecords(ctx context.Context, table string, fields []string) ([]*types.Record, error)
	WriteRecords(ctx context.Context, table string, updates []types.RecordUpdate) error
}

// Result reports one enrichment run
type Result struct {
	RunID   string
	Records int
	Skipped int
	Written int
	Failed  int
}

// queryText returns the trimmed text of field, or "" when there is nothing to send
func queryText(r *types.Record, field string) string {
	return strings.TrimSpace(r.Text(field))
}

func writeField(ctx context.Context, store RecordStore, table, recordID, field, value string) error {
	return store.WriteRecords(ctx, table, []types.RecordUpdate{{
		ID:     recordID,
		Fields: map[string]any{field: value},
	}})
}
