package cmd

import (
	"fmt"

	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/gradestore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without the full shared setup.
func storeSetup(cmd *cobra.Command) error {
	if err := bindLocalFlags(cmd); err != nil {
		return err
	}
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("store-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.InputFile = viper.GetString("input")
	return nil
}

// storeSetupWrapper wraps storeSetup and opens the grade store.
func storeSetupWrapper(cmd *cobra.Command, _ []string) error {
	if err := storeSetup(cmd); err != nil {
		return err
	}
	if err := gradestore.InitStores(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize grade store: %w", err)
	}
	return nil
}

// storeCmd focused on grade store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by the report commands. This avoids scope and
// output validation for simple maintenance operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the grade store",
	Long: `Manage the database holding classes, rosters, objectives, scores and thresholds.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show row counts and the last save batch
  clear   - Remove all grade data
  migrate - Apply or roll back schema migrations
  seed    - Load a JSON dataset

Examples:
  # Check store status
  rapor store status

  # Use PostgreSQL (set connection string via env variable)
  RAPOR_STORE_BACKEND=postgresql RAPOR_STORE_DB_CONNECT="host=... dbname=..." rapor store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, total scores, save batches and
per-table row counts.

Examples:
  rapor store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetGradeStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		gradestore.PrintStoreStatus(status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all grade data",
	Long: `Delete all grade data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the grade tables

Examples:
  rapor store clear`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return storeSetup(cmd)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := gradestore.ClearStore(cfg.StoreBackend, gradestore.GetDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back grade store migrations",
	Long: `Migrate the grade store schema with versioned migrations.

Examples:
  # Migrate to the latest version
  rapor store migrate

  # Roll back everything
  rapor store migrate --target-version 0`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return storeSetup(cmd)
	},
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := gradestore.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
	},
}

// storeSeedCmd loads a dataset into the store.
var storeSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load classes, students, objectives and scores from a JSON dataset",
	Long: `Insert or update reference data and scores from a JSON file with the keys
classes, subjects, terms, students, objectives and scores.

Examples:
  rapor store seed --input testdata/school.json`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeed(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to seed store", err)
		}
	},
}
