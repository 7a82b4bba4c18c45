package core

import "github.com/raporkit/rapor/schema"

// IsBelow reports whether value fails the threshold stored under key.
// A missing value or an unset threshold never fails.
func IsBelow(key schema.ColumnKey, value *float64, thresholds schema.ThresholdSet) bool {
	if value == nil {
		return false
	}
	limit, ok := thresholds[key]
	if !ok {
		return false
	}
	return *value < limit
}

// DefaultThresholds returns the built-in threshold set for the given TP columns:
// UAS, FINAL and every TP column at DefaultThreshold.
func DefaultThresholds(columns []schema.ColumnKey) schema.ThresholdSet {
	ts := schema.ThresholdSet{
		schema.UASKey:   schema.DefaultThreshold,
		schema.FinalKey: schema.DefaultThreshold,
	}
	for _, c := range columns {
		if _, ok := schema.TPOrdinal(c); ok {
			ts[c] = schema.DefaultThreshold
		}
	}
	return ts
}

// MergeThresholds layers stored settings over seeded ones. A nil stored value
// removes the key, which turns the policy off for that column.
func MergeThresholds(seed schema.ThresholdSet, stored map[schema.ColumnKey]*float64) schema.ThresholdSet {
	out := seed.Clone()
	for key, v := range stored {
		if v == nil {
			delete(out, key)
			continue
		}
		out[key] = *v
	}
	return out
}

// flagRow marks every column and the final grade that fall below their thresholds.
func flagRow(row *schema.SubjectSummary, thresholds schema.ThresholdSet) {
	below := make(map[schema.ColumnKey]bool)
	for key, v := range row.Values {
		if IsBelow(key, v, thresholds) {
			below[key] = true
		}
	}
	if IsBelow(schema.FinalKey, row.FinalGrade, thresholds) {
		below[schema.FinalKey] = true
	}
	if len(below) > 0 {
		row.Below = below
	}
}
