package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import <table> <file.csv>",
	Short: "Load a CSV file into a record table",
	Long: `Load a CSV file into a record table. The header row names the fields.

A column named "id" (see --id-column) supplies record ids; rows without one get
a generated id. Empty cells are left unset, so the grouper skips them.

Examples:
  fuzzygroup import contacts contacts.csv
  fuzzygroup import contacts more.csv --append
  cat leads.csv | fuzzygroup import leads -`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		table, path := args[0], args[1]
		idColumn, _ := cmd.Flags().GetString("id-column")
		appendTo, _ := cmd.Flags().GetBool("append")

		var in io.Reader = os.Stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			in = f
		}

		n, err := importCSV(cmd.Context(), store, table, in, idColumn, appendTo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Imported %d record(s) into %s\n", green("✓"), n, cyan(table))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Write a record table as CSV to stdout",
	Long: `Write a record table as CSV to stdout, in table order. The first column
is the record id; the other columns are sorted by name unless --fields is given.

Examples:
  fuzzygroup export contacts > contacts-grouped.csv
  fuzzygroup export contacts --fields Company,"Duplicate Group"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields, _ := cmd.Flags().GetStringSlice("fields")
		if err := exportCSV(cmd.Context(), store, args[0], fields, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	importCmd.Flags().String("id-column", "id", "Column holding record ids")
	importCmd.Flags().Bool("append", false, "Add to an existing table instead of failing")
	exportCmd.Flags().StringSlice("fields", nil, "Fields to export, in order (default: all)")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// importCSV reads CSV rows from r into table and returns how many were stored.
// All rows are inserted in one transaction.
func importCSV(ctx context.Context, st storage.Storage, table string, r io.Reader, idColumn string, appendTo bool) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("CSV input is empty")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []*types.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		rec := &types.Record{Fields: make(map[string]any, len(header))}
		for i, value := range row {
			if i >= len(header) || header[i] == "" || value == "" {
				continue
			}
			if header[i] == idColumn {
				rec.ID = value
				continue
			}
			rec.Fields[header[i]] = value
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		records = append(records, rec)
	}

	created := true
	if err := st.CreateTable(ctx, table); err != nil {
		if !appendTo || !errors.Is(err, storage.ErrTableExists) {
			return 0, err
		}
		created = false
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := st.InsertRecords(ctx, table, records); err != nil {
		if created {
			_ = st.DropTable(ctx, table)
		}
		return 0, err
	}
	return len(records), nil
}

// exportCSV writes table to w. With no fields, every field seen in the table
// is written, sorted by name.
func exportCSV(ctx context.Context, st storage.Storage, table string, fields []string, w io.Writer) error {
	records, err := st.ReadRecords(ctx, table, fields)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		seen := map[string]bool{}
		for _, rec := range records {
			for name := range rec.Fields {
				if !seen[name] {
					seen[name] = true
					fields = append(fields, name)
				}
			}
		}
		sort.Strings(fields)
	}

	out := csv.NewWriter(w)
	if err := out.Write(append([]string{"id"}, fields...)); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, 0, len(fields)+1)
		row = append(row, rec.ID)
		for _, name := range fields {
			row = append(row, rec.Text(name))
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
