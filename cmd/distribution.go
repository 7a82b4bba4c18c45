package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// distributionCmd prints the letter-grade histogram.
var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show how a class spreads across the A-E grade bands",
	Long: `Classify every graded student of a class and term into a letter band.

Bands:
  A  90-100
  B  80-89.99
  C  70-79.99
  D  60-69.99
  E  0-59.99

Students without an overall average are excluded and counted separately.

Examples:
  rapor distribution --class 4A --term 2024-1
  rapor distribution --class 4A --term 2024-1 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDistribution(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run distribution", err)
		}
	},
}
