package core

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/schema"
)

// yearLabelPattern is the canonical "YYYY/YYYY" academic year label.
var yearLabelPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

// PeriodKey builds the "{year} {term}" key of a trend bucket.
func PeriodKey(yearLabel, termName string) string {
	return fmt.Sprintf("%s %s", yearLabel, termName)
}

// ValidYearLabel reports whether a year label sorts chronologically as text.
func ValidYearLabel(label string) bool {
	return yearLabelPattern.MatchString(label)
}

// AggregateTrend groups records into chronologically ordered period points.
//
// Values sharing a (period, series) pair are averaged. A series with no value in
// a period is omitted from that point rather than zero-filled. Periods are
// ordered by year label as text, then first half before second half.
func AggregateTrend(records []schema.TrendRecord) []schema.PeriodPoint {
	type bucket struct {
		point  schema.PeriodPoint
		values map[string][]*float64
		order  []string
	}

	buckets := make(map[string]*bucket)
	var keys []string
	for _, rec := range records {
		key := PeriodKey(rec.YearLabel, rec.TermName)
		b, ok := buckets[key]
		if !ok {
			half := rec.TermHalf
			if half == 0 {
				half, _ = TermParity(rec.TermName)
			}
			b = &bucket{
				point: schema.PeriodPoint{
					PeriodKey: key,
					YearLabel: rec.YearLabel,
					TermHalf:  half,
					Series:    make(map[string]float64),
				},
				values: make(map[string][]*float64),
			}
			buckets[key] = b
			keys = append(keys, key)
		}
		if _, seen := b.values[rec.Series]; !seen {
			b.order = append(b.order, rec.Series)
		}
		b.values[rec.Series] = append(b.values[rec.Series], rec.Value)
	}

	out := make([]schema.PeriodPoint, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		for _, series := range b.order {
			if avg := algo.Mean(b.values[series]); avg != nil {
				b.point.Series[series] = algo.Round2(*avg)
			}
		}
		out = append(out, b.point)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].YearLabel != out[j].YearLabel {
			return out[i].YearLabel < out[j].YearLabel
		}
		return out[i].TermHalf < out[j].TermHalf
	})
	return out
}

// TrendSeries lists every series name that appears in the points, sorted.
func TrendSeries(points []schema.PeriodPoint) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range points {
		for s := range p.Series {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
