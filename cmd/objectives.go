package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// objectivesCmd prints the resolved learning objectives.
var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the learning objectives (TP) that apply to a scope",
	Long: `Resolve the curriculum objectives for a class, subject and term.

The class grade level selects the phase (A: 1-2, B: 3-4, C: 5-6) and the
term name selects odd or even objectives. Each objective shows its KKTP and
the threshold in effect after stored values and overrides.

Examples:
  rapor objectives --class 4A --subject MTK --term 2024-1`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteObjectives(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list objectives", err)
		}
	},
}
