package core

import (
	"sort"

	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/schema"
)

// FinalGrade returns round(tpAvg*w.TP + uas*w.UAS, 2).
// It is nil unless both inputs are present. A UAS of zero is a real score.
func FinalGrade(tpAvg, uas *float64, w schema.GradeWeights) *float64 {
	if tpAvg == nil || uas == nil {
		return nil
	}
	final := algo.Round2(*tpAvg*w.TP + *uas*w.UAS)
	return &final
}

// SubjectFinalGrade applies FinalGrade to a pivoted subject row.
// The TP average is taken unrounded from the row values so rounding happens once.
func SubjectFinalGrade(row schema.SubjectSummary, w schema.GradeWeights) *float64 {
	return FinalGrade(rowTPMean(row), row.Values[schema.UASKey], w)
}

// StudentFinalGrade computes the cross-subject final grade from every subject's
// unrounded TP mean and UAS value. It is nil unless at least one of each is present.
func StudentFinalGrade(rows []schema.SubjectSummary, w schema.GradeWeights) *float64 {
	tpMeans := make([]*float64, 0, len(rows))
	uasValues := make([]*float64, 0, len(rows))
	for _, row := range rows {
		tpMeans = append(tpMeans, rowTPMean(row))
		uasValues = append(uasValues, row.Values[schema.UASKey])
	}
	return FinalGrade(algo.Mean(tpMeans), algo.Mean(uasValues), w)
}

// rowTPMean averages the TP values of a row in ordinal order.
// The order is fixed so the floating-point sum is the same on every call.
func rowTPMean(row schema.SubjectSummary) *float64 {
	type tp struct {
		ordinal int
		value   *float64
	}
	tps := make([]tp, 0, len(row.Values))
	for key, v := range row.Values {
		if n, ok := schema.TPOrdinal(key); ok {
			tps = append(tps, tp{ordinal: n, value: v})
		}
	}
	sort.Slice(tps, func(i, j int) bool { return tps[i].ordinal < tps[j].ordinal })

	values := make([]*float64, len(tps))
	for i, t := range tps {
		values[i] = t.value
	}
	return algo.Mean(values)
}
