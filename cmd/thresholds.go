package cmd

import (
	"fmt"

	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// thresholdsCmd groups threshold (KKTP) management.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or store the pass thresholds (KKTP) of a scope",
	Long: `Manage the thresholds that mark grades as below expectation.

Thresholds are seeded from the curriculum (75 when the KKTP is missing),
replaced by stored values and finally by --thresholds-override.
An "off" value switches a column's threshold off.

Subcommands:
  show - Print the effective thresholds of a class, subject and term
  set  - Store thresholds for a scope (omit --subject for the class FINAL policy)`,
}

// thresholdsShowCmd prints the effective thresholds.
var thresholdsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective thresholds of a scope",
	Long: `Print every objective column with its KKTP and effective threshold.

Examples:
  rapor thresholds show --class 4A --subject MTK --term 2024-1`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteObjectives(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot show thresholds", err)
		}
	},
}

// thresholdsSetCmd stores thresholds for a scope.
var thresholdsSetCmd = &cobra.Command{
	Use:   "set <column:value,...>",
	Short: "Store thresholds for a scope",
	Long: `Merge thresholds into the stored policy of a scope. Columns not listed keep
their stored value.

Examples:
  # Raise TP1 and switch UAS off for math in 4A
  rapor thresholds set "TP1:78,UAS:off" --class 4A --subject MTK --term 2024-1

  # Class-wide final-grade threshold
  rapor thresholds set "FINAL:75" --class 4A --term 2024-1`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		values, err := contract.ParseThresholdsString(args[0])
		if err != nil {
			contract.LogFatal("Invalid thresholds", err)
		}
		if len(values) == 0 {
			contract.LogFatal("Invalid thresholds", fmt.Errorf("no thresholds in %q", args[0]))
		}
		if err := core.UpdateThresholds(rootCtx, cfg, storeManager, values); err != nil {
			contract.LogFatal("Cannot store thresholds", err)
		}
		fmt.Printf("Saved %d thresholds for %s.\n", len(values), cfg.Scope)
	},
}
