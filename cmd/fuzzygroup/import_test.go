package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportExport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := importCSV(ctx, st, "contacts", strings.NewReader(
		"id,Company,City\n1,Acme,Paris\n2,,Berlin\n,Globex,\n"), "id", false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var out bytes.Buffer
	require.NoError(t, exportCSV(ctx, st, "contacts", nil, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,City,Company", lines[0])
	assert.Equal(t, "1,Paris,Acme", lines[1])
	assert.Equal(t, "2,Berlin,", lines[2])
	assert.True(t, strings.HasSuffix(lines[3], ",,Globex"), lines[3])
	assert.Len(t, strings.TrimSuffix(lines[3], ",,Globex"), 36, "generated ids are uuids")
}

func TestExportWithoutFieldsFlagWritesAllFields(t *testing.T) {
	st := newTestStore(t)
	seedCSV(t, st, "contacts", "id,Company\nr1,Acme\n")

	require.NoError(t, exportCmd.ParseFlags([]string{}))
	fields, err := exportCmd.Flags().GetStringSlice("fields")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, exportCSV(context.Background(), st, "contacts", fields, &out))
	assert.Equal(t, "id,Company\nr1,Acme\n", out.String())
}

func TestExportSelectedFields(t *testing.T) {
	st := newTestStore(t)
	seedCSV(t, st, "contacts", "id,Company,City\n1,\"Acme, Inc.\",Paris\n")

	var out bytes.Buffer
	require.NoError(t, exportCSV(context.Background(), st, "contacts", []string{"Company"}, &out))
	assert.Equal(t, "id,Company\n1,\"Acme, Inc.\"\n", out.String())
}

func TestImportExistingTable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedCSV(t, st, "contacts", "id,Company\n1,Acme\n")

	_, err := importCSV(ctx, st, "contacts", strings.NewReader("id,Company\n2,Globex\n"), "id", false)
	assert.ErrorIs(t, err, storage.ErrTableExists)

	n, err := importCSV(ctx, st, "contacts", strings.NewReader("id,Company\n2,Globex\n"), "id", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := st.ReadRecords(ctx, "contacts", []string{"Company"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme", records[0].Text("Company"))
	assert.Equal(t, "Globex", records[1].Text("Company"))
}

func TestImportDuplicateIDsCreatesNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := importCSV(ctx, st, "contacts", strings.NewReader("id,Company\n1,Acme\n1,Globex\n"), "id", false)
	require.Error(t, err)

	tables, err := st.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestImportCustomIDColumnAndBOM(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := importCSV(ctx, st, "people", strings.NewReader("\ufeffName,Ref\nAnn,p-1\n"), "Ref", false)
	require.NoError(t, err)

	records, err := st.ReadRecords(ctx, "people", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p-1", records[0].ID)
	assert.Equal(t, map[string]any{"Name": "Ann"}, records[0].Fields)
}

func TestImportEmptyInput(t *testing.T) {
	st := newTestStore(t)
	_, err := importCSV(context.Background(), st, "t", strings.NewReader(""), "id", false)
	assert.Error(t, err)
}
