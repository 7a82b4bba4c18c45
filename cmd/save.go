package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// saveCmd stores a batch of grades.
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a batch of grades from a JSON or CSV file",
	Long: `Upsert every grade in the input file as an independent write.

A failed write never blocks the others: the summary reports how many grades
were saved and how many failed, and the batch is recorded in the save log.
Rows without class_id or term_id inherit --class and --term.

CSV header: student_id, subject_id, value and either column (TP1, UAS) or
kind plus ordinal. class_id and term_id are optional. Empty values clear a grade.

Examples:
  rapor save --input grades.csv --class 4A --term 2024-1
  rapor save --input grades.json --workers 8 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSave(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot save grades", err)
		}
	},
}
