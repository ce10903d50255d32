package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/config"
	"github.com/steveyegge/fuzzygroup/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Create a record store in the current directory",
	Long: `Create a record store by making a .fuzzygroup/ directory with a database.

This creates:
  - .fuzzygroup/ directory
  - .fuzzygroup/<project-name>.db (SQLite database)
  - .fuzzygroup/fuzzygroup.yaml (starter config, unless one exists)

If no project name is provided, the current directory name is used.

Example:
  cd ~/crm-cleanup
  fuzzygroup init              # Creates .fuzzygroup/crm-cleanup.db
  fuzzygroup init contacts     # Creates .fuzzygroup/contacts.db`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{noStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		projectName := ""
		if len(args) > 0 {
			projectName = args[0]
		}

		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
			os.Exit(1)
		}

		dbPath, cfgPath, wroteConfig, err := initProject(cmd.Context(), cwd, projectName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized fuzzygroup record store\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(dbPath))
		if wroteConfig {
			fmt.Printf("  Config: %s\n", cyan(cfgPath))
		} else {
			fmt.Printf("  Config: %s %s\n", cyan(cfgPath), gray("(kept existing)"))
		}
		fmt.Println()

		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("fuzzygroup import <table> <file.csv>"))
		fmt.Printf("  %s\n", gray("fuzzygroup group --table <table> --field <field> --group-field <field>"))
		fmt.Println()
	},
}

// initProject creates the database and starter config under dir
func initProject(ctx context.Context, dir, projectName string) (dbPath, cfgPath string, wroteConfig bool, err error) {
	dbPath, err = storage.InitProject(dir, projectName)
	if err != nil {
		return "", "", false, err
	}

	// Opening the database creates it and applies the schema
	db, err := storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	if err != nil {
		return "", "", false, fmt.Errorf("failed to initialize database: %w", err)
	}
	_ = db.Close()

	cfgPath = config.Path(dir)
	wroteConfig, err = config.WriteStarter(cfgPath)
	if err != nil {
		return "", "", false, err
	}
	return dbPath, cfgPath, wroteConfig, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
