package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/config"
	"github.com/steveyegge/fuzzygroup/internal/enrich"
	"github.com/steveyegge/fuzzygroup/internal/kgsearch"
	"github.com/steveyegge/fuzzygroup/internal/spellcheck"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Look up Knowledge Graph entity ids for a field",
	Long: `Send each record's query field to the Google Knowledge Graph Search API and
store the id of the best match in the id field.

Lookups run one at a time with a pause between them (--delay). A failed lookup
is logged and the record is skipped; records with no match are left unchanged.
The API key is read from entities.api_key or FG_KG_API_KEY.

Example:
  fuzzygroup entities --table companies --field Name --id-field "KG ID" --type Organization`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := entityConfig(cmd, project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if project.Entities.APIKey == "" {
			fmt.Fprintf(os.Stderr, "Error: Knowledge Graph API key is required (set FG_KG_API_KEY)\n")
			os.Exit(1)
		}

		var opts []kgsearch.Option
		if project.Entities.Endpoint != "" {
			opts = append(opts, kgsearch.WithEndpoint(project.Entities.Endpoint))
		}
		client := kgsearch.NewClient(project.Entities.APIKey, opts...)

		release := acquireRunLock("entities")
		result, err := runEntities(cmd.Context(), store, client, cfg)
		release()
		printEnrichSummary("Resolved entities", cfg.Table, result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var spellcheckCmd = &cobra.Command{
	Use:   "spellcheck",
	Short: "Correct spelling in a field with the JSpell checker",
	Long: `Send each record's field to the JSpell spell checker and write the text back
with every flagged word replaced by the first suggestion.

Requests run one at a time with a pause between them (--delay). Any API error
stops the run; corrections already written stay. The API key is read from
spelling.api_key or FG_JSPELL_API_KEY.

Example:
  fuzzygroup spellcheck --table notes --field Notes`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := spellConfig(cmd, project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if project.Spelling.APIKey == "" {
			fmt.Fprintf(os.Stderr, "Error: JSpell API key is required (set FG_JSPELL_API_KEY)\n")
			os.Exit(1)
		}

		opts := []spellcheck.Option{spellcheck.WithLanguage(project.Spelling.Language)}
		if project.Spelling.Endpoint != "" {
			opts = append(opts, spellcheck.WithEndpoint(project.Spelling.Endpoint))
		}
		client := spellcheck.NewClient(project.Spelling.APIKey, opts...)

		release := acquireRunLock("spellcheck")
		result, err := runSpellcheck(cmd.Context(), store, client, cfg)
		release()
		printEnrichSummary("Checked spelling", cfg.Table, result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	addEntityFlags(entitiesCmd)
	addSpellFlags(spellcheckCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(spellcheckCmd)
}

func addEntityFlags(cmd *cobra.Command) {
	cmd.Flags().String("table", "", "Record table to process")
	cmd.Flags().String("field", "", "Field holding the search text")
	cmd.Flags().String("id-field", "", "Field that receives the entity id")
	cmd.Flags().String("type", "", "Schema.org entity type filter (default: Organization)")
	cmd.Flags().Duration("delay", 0, "Pause between lookups (default 300ms)")
}

func addSpellFlags(cmd *cobra.Command) {
	cmd.Flags().String("table", "", "Record table to process")
	cmd.Flags().String("field", "", "Field to correct in place")
	cmd.Flags().Duration("delay", 0, "Pause between requests (default 4s)")
}

func entityConfig(cmd *cobra.Command, proj *config.Config) (enrich.EntityConfig, error) {
	cfg, err := proj.ToEntityConfig()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Table, _ = flags.GetString("table")
	}
	if flags.Changed("field") {
		cfg.QueryField, _ = flags.GetString("field")
	}
	if flags.Changed("id-field") {
		cfg.IDField, _ = flags.GetString("id-field")
	}
	if flags.Changed("type") {
		cfg.EntityType, _ = flags.GetString("type")
	}
	if flags.Changed("delay") {
		cfg.Interval, _ = flags.GetDuration("delay")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid entity configuration: %w", err)
	}
	return cfg, nil
}

func spellConfig(cmd *cobra.Command, proj *config.Config) (enrich.SpellConfig, error) {
	cfg, err := proj.ToSpellConfig()
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
	if flags.Changed("delay") {
		cfg.Interval, _ = flags.GetDuration("delay")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid spelling configuration: %w", err)
	}
	return cfg, nil
}

func runEntities(ctx context.Context, st storage.Storage, lookup enrich.EntityLookup, cfg enrich.EntityConfig) (*enrich.Result, error) {
	started := time.Now()
	result, err := enrich.NewEntityRunner(st, lookup, cfg).Run(ctx)
	recordEnrichRun(ctx, st, types.RunEntities, cfg.Table, started, result, err)
	return result, err
}

func runSpellcheck(ctx context.Context, st storage.Storage, checker enrich.SpellChecker, cfg enrich.SpellConfig) (*enrich.Result, error) {
	started := time.Now()
	result, err := enrich.NewSpellRunner(st, checker, cfg).Run(ctx)
	recordEnrichRun(ctx, st, types.RunSpellcheck, cfg.Table, started, result, err)
	return result, err
}

func recordEnrichRun(ctx context.Context, st storage.Storage, kind types.RunKind, table string, started time.Time, result *enrich.Result, runErr error) {
	if result == nil {
		return
	}
	run := &types.Run{
		ID:         result.RunID,
		Table:      table,
		Kind:       kind,
		Records:    result.Records,
		Written:    result.Written,
		Status:     types.RunSucceeded,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = types.RunFailed
		run.Error = runErr.Error()
	}
	recordRun(ctx, st, run)
}

func printEnrichSummary(title, table string, result *enrich.Result) {
	if result == nil {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("\n%s %s for %s\n\n", green("✓"), title, cyan(table))
	fmt.Printf("  Records: %d\n", result.Records)
	fmt.Printf("  Written: %d\n", result.Written)
	fmt.Printf("  Skipped: %d\n", result.Skipped)
	if result.Failed > 0 {
		fmt.Printf("  Failed: %s\n", yellow(result.Failed))
	}
	fmt.Println()
}
