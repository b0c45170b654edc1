package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dbSetup loads minimal configuration needed for database maintenance.
// It skips the store bootstrap so that clear and migrate act on the raw database.
func dbSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseDatabaseBackend(viper.GetString("db-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.DBBackend = backend
	cfg.DBConnect = connStr
	cfg.TargetVersion = viper.GetInt("target-version")
	return nil
}

// dbSetupWrapper wraps dbSetup to provide PreRunE for db commands.
func dbSetupWrapper(_ *cobra.Command, _ []string) error {
	return dbSetup()
}

// dbCmd focused on database maintenance.
//
// Note: db subcommands use dbSetup instead of the full sharedSetup so that
// they work even when the stored schema is broken or outdated.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the history database",
	Long: `Inspect and maintain the database that stores repositories and their history.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection info
  clear   - Remove all stored data
  migrate - Apply or roll back versioned schema migrations

Examples:
  codemonitor db status

  # Clear a PostgreSQL store (set connection string via env variable)
  CODEMONITOR_DB_BACKEND=postgresql CODEMONITOR_DB_CONNECT="..." codemonitor db clear`,
}

// dbStatusCmd shows store status.
var dbStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display database statistics and connection details",
	Args:    cobra.NoArgs,
	PreRunE: dbSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.InitStore(cfg.DBBackend, cfg.DBConnect); err != nil {
			return err
		}
		status, err := iocache.Manager.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database status: %w", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

// dbClearCmd drops all stored data.
var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all repositories, history and settings",
	Long: `Delete all stored data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the codemonitor tables`,
	Args:    cobra.NoArgs,
	PreRunE: dbSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearDatabase(cfg.DBBackend, cfg.DBConnect); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
		fmt.Println("Database cleared successfully.")
		return nil
	},
}

// dbMigrateCmd runs versioned schema migrations.
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long: `Run the versioned schema migrations for the configured backend.

Examples:
  # Migrate to the latest schema
  codemonitor db migrate

  # Roll back everything
  codemonitor db migrate --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: dbSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		summary, err := iocache.Migrate(cfg.DBBackend, cfg.DBConnect, cfg.TargetVersion)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}
