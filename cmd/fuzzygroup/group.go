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
	"github.com/steveyegge/fuzzygroup/internal/deduplication"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Assign group ids to duplicate records",
	Long: `Read every record of a table, group them by the value of one field, and
write "Group n" into the group field of each record.

Methods:
  exact        values must be identical
  ignore_case  values must match after case folding ("case-insensitive" also works)
  fuzzy        values within --threshold edit operations match

Each value is compared against the first value of every group so far, in the
order groups were created, and joins the first group it matches. Records with
an empty value are skipped. Ids are written in batches of at most 50; a failed
batch stops the run and earlier batches stay written.

Flags override grouping settings from fuzzygroup.yaml and FG_* variables.

Examples:
  fuzzygroup group --table contacts --field Company --group-field "Duplicate Group"
  fuzzygroup group --table contacts --field Company --group-field Group --method fuzzy --threshold 2
  fuzzygroup group --method ignore_case --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := groupingConfig(cmd, project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		release := func() {}
		if !cfg.DryRun {
			release = acquireRunLock("group")
		}
		result, err := runGrouping(cmd.Context(), store, cfg)
		release()
		printGroupSummary(cfg, result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if !cfg.DryRun {
			fmt.Println(deduplication.CompletionMessage(cfg.Method))
		}
	},
}

func init() {
	addGroupFlags(groupCmd)
	rootCmd.AddCommand(groupCmd)
}

func addGroupFlags(cmd *cobra.Command) {
	cmd.Flags().String("table", "", "Record table to process")
	cmd.Flags().String("field", "", "Field holding the value to compare")
	cmd.Flags().String("group-field", "", "Field that receives the group id")
	cmd.Flags().String("method", "", "Matching method: exact, ignore_case, or fuzzy")
	cmd.Flags().Int("threshold", 0, "Maximum edit distance for fuzzy matching (default 3)")
	cmd.Flags().Int("batch-size", 0, "Group ids written per batch (max 50)")
	cmd.Flags().Bool("dry-run", false, "Group without writing anything")
}

// groupingConfig merges the project config with any flags that were set
func groupingConfig(cmd *cobra.Command, proj *config.Config) (deduplication.Config, error) {
	if proj == nil {
		proj = config.DefaultConfig()
	}
	cfg, err := proj.ToGroupingConfig()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Table, _ = flags.GetString("table")
	}
	if flags.Changed("field") {
		cfg.Field, _ = flags.GetString("field")
	}
	if flags.Changed("group-field") {
		cfg.GroupField, _ = flags.GetString("group-field")
	}
	if flags.Changed("method") {
		cfg.Method, _ = flags.GetString("method")
	}
	if flags.Changed("threshold") {
		cfg.FuzzyThreshold, _ = flags.GetInt("threshold")
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid grouping configuration: %w", err)
	}
	return cfg, nil
}

// runGrouping runs one grouping job and records it in the run history.
// Dry runs are not recorded.
func runGrouping(ctx context.Context, st storage.Storage, cfg deduplication.Config) (*deduplication.RunResult, error) {
	started := time.Now()
	result, runErr := deduplication.NewJob(st, cfg).Run(ctx)
	if cfg.DryRun && runErr == nil {
		return result, nil
	}

	run := &types.Run{
		ID:         result.RunID,
		Table:      cfg.Table,
		Kind:       types.RunGroup,
		Method:     string(result.Method),
		Written:    result.Written,
		Status:     types.RunSucceeded,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if result.Grouping != nil {
		run.Records = result.Grouping.Stats.TotalRecords
		run.Groups = result.Grouping.Stats.GroupsCreated
	}
	if runErr != nil {
		run.Status = types.RunFailed
		run.Error = runErr.Error()
	}
	recordRun(ctx, st, run)

	return result, runErr
}

// recordRun stores run history. Failing to record never fails the command.
func recordRun(ctx context.Context, st storage.Storage, run *types.Run) {
	if err := st.RecordRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record run history")
	}
}

func printGroupSummary(cfg deduplication.Config, result *deduplication.RunResult) {
	if result == nil || result.Grouping == nil {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	stats := result.Grouping.Stats
	fmt.Printf("\n%s Grouped %d record(s) from %s\n\n", green("✓"), stats.TotalRecords, cyan(cfg.Table))
	fmt.Printf("  Method: %s\n", describeMethod(cfg))
	fmt.Printf("  Groups: %d\n", stats.GroupsCreated)
	fmt.Printf("  Duplicates: %d\n", stats.DuplicateRecords)
	if stats.SkippedRecords > 0 {
		fmt.Printf("  Skipped (empty %s): %s\n", cfg.Field, yellow(stats.SkippedRecords))
	}
	if result.Method == types.MethodUnknown {
		fmt.Printf("  %s unrecognized method %q, every value has its own group\n", yellow("⚠"), cfg.Method)
	}

	if result.DryRun {
		fmt.Printf("\n%s Dry run, nothing written\n\n", gray("→"))
		return
	}
	fmt.Printf("  Written: %d of %d in %d batch(es)\n\n",
		result.Written, len(result.Grouping.Assignments), result.Batches)
}

func describeMethod(cfg deduplication.Config) string {
	if cfg.ParsedMethod() == types.MethodFuzzy {
		return fmt.Sprintf("%s (threshold %d)", types.MethodFuzzy, cfg.EffectiveThreshold())
	}
	return string(cfg.ParsedMethod())
}
