package agg

import (
	_ "embed"
	"encoding/json"
	"testing"

	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/math_scope.json
var mathScopeFixture []byte

func loadFixture(t *testing.T) []schema.AssessmentRecord {
	t.Helper()
	var records []schema.AssessmentRecord
	require.NoError(t, json.Unmarshal(mathScopeFixture, &records))
	return records
}

func TestPivotSubject(t *testing.T) {
	records := loadFixture(t)
	columns := []schema.ColumnKey{"TP1", "TP2", schema.UASKey}
	roster := []schema.Student{
		{ID: "s-003", Name: "Citra Lestari"},
		{ID: "s-002", Name: "Budi Santoso"},
		{ID: "s-001", Name: "Andi Pratama"},
	}

	rows := PivotSubject(schema.Subject{ID: "MTK", Name: "Matematika"}, records, columns, roster)
	require.Len(t, rows, 3)

	t.Run("sorted by name", func(t *testing.T) {
		assert.Equal(t, "Andi Pratama", rows[0].StudentName)
		assert.Equal(t, "Budi Santoso", rows[1].StudentName)
		assert.Equal(t, "Citra Lestari", rows[2].StudentName)
	})

	t.Run("full row", func(t *testing.T) {
		andi := rows[0]
		assert.Equal(t, 60.0, *andi.Values["TP1"])
		assert.Equal(t, 90.0, *andi.Values["TP2"])
		assert.Equal(t, 80.0, *andi.Values[schema.UASKey])
		assert.Equal(t, 75.0, *andi.TPAverage)
		assert.Equal(t, 76.67, *andi.Average)
		assert.Nil(t, andi.FinalGrade, "final grade is left to the calculator")
	})

	t.Run("roster student without records", func(t *testing.T) {
		budi := rows[1]
		assert.Len(t, budi.Values, 3)
		for _, c := range columns {
			assert.Nil(t, budi.Values[c])
		}
		assert.Nil(t, budi.TPAverage)
		assert.Nil(t, budi.Average)
	})

	t.Run("last seen wins and unknown columns dropped", func(t *testing.T) {
		citra := rows[2]
		assert.Equal(t, 85.0, *citra.Values["TP1"])
		assert.Nil(t, citra.Values["TP2"])
		assert.NotContains(t, citra.Values, schema.ColumnKey("TP3"))
		require.NotNil(t, citra.Values[schema.UASKey])
		assert.Equal(t, 0.0, *citra.Values[schema.UASKey])
		assert.Equal(t, 85.0, *citra.TPAverage)
		assert.Equal(t, 42.5, *citra.Average)
	})
}

func TestPivotSubjectWithoutRoster(t *testing.T) {
	records := loadFixture(t)
	rows := PivotSubject(schema.Subject{ID: "IPA"}, records, []schema.ColumnKey{"TP1", schema.UASKey}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "Citra Lestari", rows[0].StudentName)
	assert.Equal(t, "IPA", rows[0].SubjectName)
	assert.Nil(t, rows[0].TPAverage)
	assert.Equal(t, 95.0, *rows[0].Average)
}

func TestPivotSubjectDoesNotAliasInput(t *testing.T) {
	records := []schema.AssessmentRecord{
		{StudentID: "a", StudentName: "A", SubjectID: "X", Kind: schema.KindUAS, Value: schema.Float(70)},
	}
	rows := PivotSubject(schema.Subject{ID: "X"}, records, []schema.ColumnKey{schema.UASKey}, nil)
	*records[0].Value = 10
	assert.Equal(t, 70.0, *rows[0].Values[schema.UASKey])
}

func TestSubjectsOf(t *testing.T) {
	subjects := SubjectsOf(loadFixture(t))
	require.Len(t, subjects, 2)
	assert.Equal(t, "IPA", subjects[0].ID)
	assert.Equal(t, "MTK", subjects[1].ID)
}

func TestMaxTPOrdinal(t *testing.T) {
	assert.Equal(t, 3, MaxTPOrdinal(loadFixture(t)))
	assert.Equal(t, 0, MaxTPOrdinal(nil))
}
