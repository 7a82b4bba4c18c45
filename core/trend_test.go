package core

import (
	"testing"

	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendRecord(series, year, term string, half int, v float64) schema.TrendRecord {
	return schema.TrendRecord{Series: series, YearLabel: year, TermName: term, TermHalf: half, Value: schema.Float(v)}
}

func TestAggregateTrend(t *testing.T) {
	records := []schema.TrendRecord{
		trendRecord("Matematika", "2024/2025", "Ganjil", 1, 88),
		trendRecord("Matematika", "2023/2024", "Genap", 2, 70),
		trendRecord("Matematika", "2023/2024", "Genap", 2, 90),
		trendRecord("IPAS", "2023/2024", "Ganjil", 1, 65),
		trendRecord("Matematika", "2023/2024", "Ganjil", 1, 77),
	}

	points := AggregateTrend(records)
	require.Len(t, points, 3)

	t.Run("chronological order", func(t *testing.T) {
		assert.Equal(t, "2023/2024 Ganjil", points[0].PeriodKey)
		assert.Equal(t, "2023/2024 Genap", points[1].PeriodKey)
		assert.Equal(t, "2024/2025 Ganjil", points[2].PeriodKey)
	})

	t.Run("same period values are averaged", func(t *testing.T) {
		assert.Equal(t, 80.0, points[1].Series["Matematika"])
	})

	t.Run("absent series are omitted", func(t *testing.T) {
		assert.Equal(t, 65.0, points[0].Series["IPAS"])
		_, ok := points[1].Series["IPAS"]
		assert.False(t, ok)
	})

	assert.Equal(t, []string{"IPAS", "Matematika"}, TrendSeries(points))
}

func TestAggregateTrendDerivesHalfFromName(t *testing.T) {
	records := []schema.TrendRecord{
		trendRecord("IPAS", "2023/2024", "Semester Genap", 0, 80),
		trendRecord("IPAS", "2023/2024", "Semester Ganjil", 0, 70),
	}
	points := AggregateTrend(records)
	require.Len(t, points, 2)
	assert.Equal(t, "2023/2024 Semester Ganjil", points[0].PeriodKey)
	assert.Equal(t, 1, points[0].TermHalf)
	assert.Equal(t, 2, points[1].TermHalf)
}

func TestAggregateTrendSkipsNilValues(t *testing.T) {
	records := []schema.TrendRecord{
		{Series: "IPAS", YearLabel: "2023/2024", TermName: "Ganjil", TermHalf: 1},
	}
	points := AggregateTrend(records)
	require.Len(t, points, 1)
	assert.Empty(t, points[0].Series)
	assert.Empty(t, AggregateTrend(nil))
}

func TestValidYearLabel(t *testing.T) {
	assert.True(t, ValidYearLabel("2023/2024"))
	assert.False(t, ValidYearLabel("2023-2024"))
	assert.False(t, ValidYearLabel("23/24"))
	assert.False(t, ValidYearLabel(""))
}
