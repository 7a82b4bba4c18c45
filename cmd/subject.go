package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// subjectCmd prints the subject-teacher pivot.
var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Show per-objective grades of one subject for a class and term",
	Long: `Pivot the scores of one subject into a row per student.

Columns:
- One column per resolved learning objective (TP1, TP2, ...)
- UAS (end-of-term exam)
- TP average, overall average and final grade

Cells under their threshold (KKTP) are marked. Students without any grade
still get a row with empty cells.

Examples:
  # Math grades of class 4A in the first term
  rapor subject --class 4A --subject MTK --term 2024-1

  # Sort by final grade, highest first
  rapor subject --class 4A --subject MTK --term 2024-1 --sort final --sort-clicks 2

  # Override thresholds for this run only
  rapor subject --class 4A --subject MTK --term 2024-1 --thresholds-override "TP1:70,UAS:off"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSubjectSummary(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run subject summary", err)
		}
	},
}
