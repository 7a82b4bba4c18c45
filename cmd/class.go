package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// classCmd prints the homeroom summary.
var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Rank a class by overall average across all subjects",
	Long: `Summarize one class and term across every subject.

Each student row shows the per-subject averages, the overall average with its
letter band (A-E), the final grade and a rank. Students without grades are
listed but not ranked.

Examples:
  # Homeroom summary of class 4A
  rapor class --class 4A --term 2024-1

  # Sort by name using the class locale
  rapor class --class 4A --term 2024-1 --sort name --locale id

  # Export the ranking as CSV
  rapor class --class 4A --term 2024-1 --output csv --output-file 4a.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassSummary(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run class summary", err)
		}
	},
}
