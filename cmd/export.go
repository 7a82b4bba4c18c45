package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// exportCmd writes a class and term to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a class and term to Parquet files",
	Long: `Write the grades of a class and term as Parquet files for analytics tools.

Files (prefix from --output-file):
  <prefix>.grades.parquet       - one row per student, subject and column
  <prefix>.subjects.parquet     - per-subject averages and final grades
  <prefix>.students.parquet     - overall averages, bands and ranks
  <prefix>.save_batches.parquet - the bulk save log

Examples:
  rapor export --class 4A --term 2024-1 --output-file 4a-2024-1`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot export grades", err)
		}
	},
}
