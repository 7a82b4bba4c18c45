package core

import (
	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/schema"
)

// gradeBands are contiguous over [0,100]. Only band A includes its upper bound.
var gradeBands = []schema.DistributionBucket{
	{Label: schema.BandA, Min: 90, Max: 100},
	{Label: schema.BandB, Min: 80, Max: 90},
	{Label: schema.BandC, Min: 70, Max: 80},
	{Label: schema.BandD, Min: 60, Max: 70},
	{Label: schema.BandE, Min: 0, Max: 60},
}

// BandOf returns the band label for an average. Values outside [0,100]
// are clamped into the nearest band.
func BandOf(avg float64) string {
	for _, b := range gradeBands {
		if avg >= b.Min {
			return b.Label
		}
	}
	return schema.BandE
}

// ClassifyDistribution buckets the present averages into the five fixed bands.
// All bands are always returned in A..E order; nil averages are not counted.
func ClassifyDistribution(averages []*float64) []schema.DistributionBucket {
	counts := make(map[string]int, len(gradeBands))
	total := 0
	for _, avg := range averages {
		if avg == nil {
			continue
		}
		counts[BandOf(*avg)]++
		total++
	}

	out := make([]schema.DistributionBucket, len(gradeBands))
	for i, b := range gradeBands {
		b.Count = counts[b.Label]
		b.Percentage = algo.Percentage(b.Count, total)
		out[i] = b
	}
	return out
}

// StudentAverages extracts the overall averages used by the distribution.
func StudentAverages(students []schema.StudentSummary) []*float64 {
	out := make([]*float64, len(students))
	for i, s := range students {
		out[i] = s.OverallAverage
	}
	return out
}
