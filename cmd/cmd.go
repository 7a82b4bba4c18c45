// Package cmd defines the command-line interface for rapor.
package cmd

import (
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(distributionCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(objectivesCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the thresholds subcommands to the parent thresholds command
	thresholdsCmd.AddCommand(thresholdsShowCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeSeedCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("class", "", "Class (rombel) id")
	rootCmd.PersistentFlags().String("subject", "", "Subject id")
	rootCmd.PersistentFlags().String("term", "", "Term (semester) id")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for grades (1 or 2)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("locale", contract.DefaultLocale, "Collation locale for name sorting (BCP 47 tag)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("thresholds-override", "", "Threshold overrides (format: 'TP1:70,UAS:off,FINAL:75')")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Sorting flags are shared by the two tabular views and bound in bindLocalFlags
	for _, c := range []*cobra.Command{subjectCmd, classCmd} {
		c.Flags().String("sort", "", "Column to sort by (name, student_id, TP1.., UAS, average, final, subject id)")
		c.Flags().Int("sort-clicks", contract.DefaultSortClicks, "Header clicks on the sort column: 1 ascending, 2 descending, 3 unsorted")
	}

	// Bind all flags of trendCmd to Viper
	trendCmd.Flags().String("student", "", "Student id for a per-student trend")
	trendCmd.Flags().String("cohort", "", "Cohort (angkatan) label for a per-cohort trend")
	trendCmd.Flags().String("group-by", "", "Trend grouping: student or class or cohort (inferred when empty)")
	if err := viper.BindPFlags(trendCmd.Flags()); err != nil {
		contract.LogFatal("Error binding trend flags", err)
	}

	// Bind all flags of saveCmd to Viper
	saveCmd.Flags().String("input", "", "Path to a .json or .csv grade batch")
	saveCmd.Flags().Int("workers", contract.DefaultWorkers, "Concurrent writes (0 = one per grade)")
	if err := viper.BindPFlags(saveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding save flags", err)
	}

	// storeSeedCmd shares --input with saveCmd and is bound in bindLocalFlags
	storeSeedCmd.Flags().String("input", "", "Path to a JSON dataset")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Listen address for the HTTP API")
	serveCmd.Flags().String("allowed-origins", "", "Comma-separated CORS origins (empty disables CORS)")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
}
