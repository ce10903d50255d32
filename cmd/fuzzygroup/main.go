package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/config"
	"github.com/steveyegge/fuzzygroup/internal/storage"
)

// noStore marks commands that run without an open record store
const noStore = "no-store"

var (
	dbPath     string
	configPath string
	debug      bool

	store    storage.Storage
	project  *config.Config
	openedDB string
)

var rootCmd = &cobra.Command{
	Use:   "fuzzygroup",
	Short: "Find duplicate records and tag them with group ids",
	Long: `fuzzygroup groups the records of a table by one field and writes a
"Group n" id into another field, so duplicates share an id.

Values can be compared exactly, ignoring case, or by edit distance. Records are
kept in a local SQLite store under .fuzzygroup/; import a CSV to get started:

  fuzzygroup init
  fuzzygroup import contacts contacts.csv
  fuzzygroup group --table contacts --field Company --group-field "Duplicate Group" --method fuzzy
  fuzzygroup groups contacts --field "Duplicate Group"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadEnvFiles()
		setupLogging(debug)

		if !needsStore(cmd) {
			return
		}
		if err := openProject(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .fuzzygroup/*.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .fuzzygroup/fuzzygroup.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// needsStore reports whether cmd works on the record store
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch {
		case c.Annotations[noStore] == "true":
			return false
		case c.Name() == "help", c.Name() == "completion", strings.HasPrefix(c.Name(), "__complete"):
			return false
		}
	}
	return cmd.HasParent()
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// environment win over both.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// setupLogging points the global zerolog logger at stderr. FG_LOG_LEVEL
// overrides the level; LOG_FORMAT=json switches off the console writer.
func setupLogging(debug bool) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if env := os.Getenv("FG_LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}).With().Timestamp().Logger()
}

// openProject loads the config file and opens the record store
func openProject(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	path := configPath
	if path == "" {
		path = config.Path(cwd)
	}
	project, err = config.LoadConfig(path)
	if err != nil {
		return err
	}

	resolved, err := resolveDBPath(project)
	if err != nil {
		return err
	}

	store, err = storage.NewStorage(ctx, &storage.Config{Path: resolved})
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", resolved, err)
	}
	openedDB = resolved
	log.Debug().Str("db", resolved).Str("config", path).Msg("Opened project")
	return nil
}

// resolveDBPath picks the database: --db, then FG_DB_PATH, then the config
// file, then discovery in the current directory.
func resolveDBPath(cfg *config.Config) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if os.Getenv("FG_DB_PATH") == "" && cfg.Database != "" {
		if filepath.IsAbs(cfg.Database) || cfg.Database == ":memory:" {
			return cfg.Database, nil
		}
		return filepath.Abs(cfg.Database)
	}
	return storage.DiscoverDatabase()
}

// acquireRunLock claims the open database for a writing run and exits if
// another run holds it. Call the returned func when the run is done.
func acquireRunLock(holder string) func() {
	lockPath, err := storage.AcquireRunLock(openedDB, holder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return func() {
		if err := storage.ReleaseRunLock(lockPath); err != nil {
			log.Warn().Err(err).Msg("Failed to release run lock")
		}
	}
}
