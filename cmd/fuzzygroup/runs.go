package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/config"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs [table]",
	Short: "Show recent grouping and enrichment runs",
	Long: `Show recent grouping and enrichment runs, newest first.

With --prune, delete old history instead. Runs older than FG_RUN_RETENTION_DAYS
(default 90) are deleted, except the newest FG_RUN_KEEP (default 20) of each table.

Examples:
  fuzzygroup runs
  fuzzygroup runs contacts --limit 5
  fuzzygroup runs --prune`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetBool("prune")
		table := ""
		if len(args) > 0 {
			table = args[0]
		}

		if prune {
			deleted, err := pruneRuns(cmd.Context(), store, time.Now())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Pruned %d run(s)\n", green("✓"), deleted)
			return
		}

		runs, err := store.GetRuns(cmd.Context(), table, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		for _, r := range runs {
			mark := green("✓")
			if r.Status == types.RunFailed {
				mark = red("✗")
			}
			detail := fmt.Sprintf("%d records, %d written", r.Records, r.Written)
			if r.Kind == types.RunGroup {
				detail = fmt.Sprintf("%s, %d records, %d groups, %d written", r.Method, r.Records, r.Groups, r.Written)
			}
			fmt.Printf("%s %s %-10s %-16s %s\n",
				mark, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.Table, detail)
			if r.Error != "" {
				fmt.Printf("    %s\n", red(r.Error))
			}
			fmt.Printf("    %s\n", gray(r.ID))
		}
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List record tables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tables, err := store.ListTables(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tables) == 0 {
			fmt.Println("No tables. Run 'fuzzygroup import <table> <file.csv>' to create one.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, t := range tables {
			fmt.Printf("%s  %d record(s)  %s\n", cyan(t.Name), t.Records,
				gray("created "+t.CreatedAt.Local().Format("2006-01-02 15:04")))
		}
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <table>",
	Short: "Delete a record table and its records",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.DropTable(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Dropped %s\n", green("✓"), args[0])
	},
}

// pruneRuns applies the run retention settings from the environment
func pruneRuns(ctx context.Context, st storage.Storage, now time.Time) (int, error) {
	cfg, err := config.RunRetentionConfigFromEnv()
	if err != nil {
		return 0, err
	}
	log.Debug().Str("retention", cfg.String()).Msg("Pruning run history")
	return st.PruneRuns(ctx, cfg.Cutoff(now), cfg.KeepRuns, cfg.BatchSize)
}

func init() {
	runsCmd.Flags().Int("limit", 20, "Maximum runs to show (0 for all)")
	runsCmd.Flags().Bool("prune", false, "Delete old runs per the retention settings")
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(dropCmd)
}
