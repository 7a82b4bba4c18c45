package cmd

import (
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/spf13/cobra"
)

// trendCmd prints averages over academic periods.
var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Track averages across academic years and terms",
	Long: `Average grades per period (academic year and term half) and per series.

A series is one subject, or all subjects together when --subject is empty.
Periods are ordered by year label ("2023/2024") and then by term half.

Groupings:
  student - one student's history (--student)
  class   - every student of a class (--class)
  cohort  - every student of an intake year (--cohort)

Examples:
  rapor trend --student s-001
  rapor trend --class 4A --subject MTK
  rapor trend --cohort 2021 --group-by cohort --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrend(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run trend", err)
		}
	},
}
