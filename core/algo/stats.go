// Package algo has the numeric primitives behind grade aggregation.
package algo

import "math"

// GradePrecision is the number of decimals every derived grade is rounded to.
const GradePrecision = 2

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds v to GradePrecision decimals.
func Round2(v float64) float64 {
	return Round(v, GradePrecision)
}

// Mean averages the present values and ignores nil entries.
// It returns nil when no value is present, never zero.
func Mean(values []*float64) *float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// RoundedMean is Mean rounded to GradePrecision decimals.
func RoundedMean(values []*float64) *float64 {
	avg := Mean(values)
	if avg == nil {
		return nil
	}
	r := Round2(*avg)
	return &r
}

// Percentage returns round(count/total*100, 2), or 0 when total is 0.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(count) / float64(total) * 100)
}
