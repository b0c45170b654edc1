// Package cmd defines the command-line interface for codemonitor.
package cmd

import (
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoRemoveCmd)

	historyCmd.AddCommand(historyExportCmd)

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("db-backend", string(schema.SQLiteBackend), "Database backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (SQLite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int("batch-size", contract.DefaultBatchSize, "Snapshots buffered per database write during a backfill")
	rootCmd.PersistentFlags().Int("max-concurrent", 0, "Maximum backfills running at once (0 = no limit)")
	rootCmd.PersistentFlags().String("poll-interval", contract.DefaultPollInterval.String(), "How often backfill progress is refreshed")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Write JSON logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of repoAddCmd to Viper
	repoAddCmd.Flags().String("name", "", "Display name (defaults to the repository folder name)")
	repoAddCmd.Flags().String("include", "", "Only count files under this path, relative to the repository root")
	if err := viper.BindPFlags(repoAddCmd.Flags()); err != nil {
		contract.LogFatal("Error binding repo add flags", err)
	}

	// Bind all flags of statsCmd to Viper
	statsCmd.Flags().String("repos", "", "Comma-separated repository names, or 'all'")
	statsCmd.Flags().Int("days", contract.DefaultDays, "Number of days to look back")
	if err := viper.BindPFlags(statsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding stats flags", err)
	}

	// Bind all flags of baselineCmd to Viper
	baselineCmd.Flags().String("cloc-path", contract.DefaultClocPath, "Path to the cloc executable")
	if err := viper.BindPFlags(baselineCmd.Flags()); err != nil {
		contract.LogFatal("Error binding baseline flags", err)
	}

	// Bind all flags of mcpCmd to Viper
	mcpCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	if err := viper.BindPFlags(mcpCmd.Flags()); err != nil {
		contract.LogFatal("Error binding mcp flags", err)
	}

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}
}
