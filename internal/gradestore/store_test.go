package gradestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() schema.Dataset {
	return schema.Dataset{
		Classes:  []schema.Class{{ID: "4A", Name: "Kelas 4A", GradeLevel: 4}},
		Subjects: []schema.Subject{{ID: "MTK", Name: "Matematika"}, {ID: "IPA", Name: "IPAS"}},
		Terms: []schema.Term{
			{ID: "T1", Name: "Semester Ganjil", YearLabel: "2023/2024", Half: 1},
			{ID: "T2", Name: "Semester Genap", YearLabel: "2023/2024", Half: 2},
		},
		Students: []schema.Student{
			{ID: "s1", Name: "Budi", ClassID: "4A", Cohort: "2021"},
			{ID: "s2", Name: "Ani", ClassID: "4A", Cohort: "2021"},
		},
		Objectives: []schema.LearningObjective{
			{SubjectID: "MTK", Phase: schema.PhaseB, TermParity: 0, Ordinal: 1, Description: "Bilangan", RawThreshold: "75"},
			{SubjectID: "MTK", Phase: schema.PhaseB, TermParity: 1, Ordinal: 2, Description: "Pecahan", RawThreshold: "70"},
			{SubjectID: "MTK", Phase: schema.PhaseB, TermParity: 2, Ordinal: 3, Description: "Geometri"},
		},
		Scores: []schema.ScoreWrite{
			{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindTP, Ordinal: 1, Value: schema.Float(60)},
			{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindTP, Ordinal: 2, Value: schema.Float(90)},
			{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS, Value: schema.Float(80)},
			{StudentID: "s1", SubjectID: "IPA", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS, Value: schema.Float(70)},
			{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T2", Kind: schema.KindUAS, Value: schema.Float(90)},
		},
	}
}

func newTestStore(t *testing.T) *GradeStoreImpl {
	t.Helper()
	store, err := NewGradeStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "rapor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Seed(context.Background(), sampleDataset()))
	return store
}

func TestGradeStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewGradeStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// Reads are empty and writes are accepted
	records, err := store.ListScopeRecords(ctx, schema.Scope{ClassID: "4A", TermID: "T1"})
	assert.NoError(t, err)
	assert.Empty(t, records)

	assert.NoError(t, store.UpsertScore(ctx, schema.ScoreWrite{StudentID: "s1", Kind: schema.KindUAS}))
	assert.NoError(t, store.SaveThresholds(ctx, schema.Scope{ClassID: "4A"}, nil))
	assert.NoError(t, store.BeginBatch(ctx, "b1", time.Now()))
	assert.NoError(t, store.Seed(ctx, sampleDataset()))

	// Lookups echo the id
	class, err := store.GetClass(ctx, "4A")
	assert.NoError(t, err)
	assert.Equal(t, "4A", class.Name)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestGradeStore_UnsupportedBackend(t *testing.T) {
	_, err := NewGradeStore(schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestGradeStore_ScopeRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	records, err := store.ListScopeRecords(ctx, schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"})
	require.NoError(t, err)
	require.Len(t, records, 3)

	byColumn := make(map[schema.ColumnKey]schema.AssessmentRecord)
	for _, r := range records {
		key, ok := r.Column()
		require.True(t, ok)
		byColumn[key] = r
	}
	assert.Equal(t, "Budi", byColumn["TP1"].StudentName)
	assert.Equal(t, "Matematika", byColumn["TP1"].SubjectName)
	assert.InDelta(t, 60.0, *byColumn["TP1"].Value, 0.0001)
	assert.InDelta(t, 80.0, *byColumn[schema.UASKey].Value, 0.0001)
	assert.Equal(t, 0, byColumn[schema.UASKey].Ordinal)

	// Class-wide scope spans subjects
	all, err := store.ListScopeRecords(ctx, schema.Scope{ClassID: "4A", TermID: "T1"})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGradeStore_UpsertReplacesValue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	op := schema.ScoreWrite{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindTP, Ordinal: 1, Value: schema.Float(85)}
	require.NoError(t, store.UpsertScore(ctx, op))

	// Clearing a cell keeps the row with a null value
	op2 := schema.ScoreWrite{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindTP, Ordinal: 2}
	require.NoError(t, store.UpsertScore(ctx, op2))

	records, err := store.ListScopeRecords(ctx, schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		if r.Kind != schema.KindTP {
			continue
		}
		switch r.Ordinal {
		case 1:
			require.NotNil(t, r.Value)
			assert.InDelta(t, 85.0, *r.Value, 0.0001)
		case 2:
			assert.Nil(t, r.Value)
		}
	}
}

func TestGradeStore_UASOrdinalIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	op := schema.ScoreWrite{StudentID: "s2", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS, Ordinal: 7, Value: schema.Float(50)}
	require.NoError(t, store.UpsertScore(ctx, op))
	op.Value = schema.Float(55)
	op.Ordinal = 3
	require.NoError(t, store.UpsertScore(ctx, op))

	records, err := store.ListScopeRecords(ctx, schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"})
	require.NoError(t, err)
	var uas []schema.AssessmentRecord
	for _, r := range records {
		if r.StudentID == "s2" {
			uas = append(uas, r)
		}
	}
	require.Len(t, uas, 1)
	assert.Equal(t, 0, uas[0].Ordinal)
	assert.InDelta(t, 55.0, *uas[0].Value, 0.0001)
}

func TestGradeStore_ReferenceLookups(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	class, err := store.GetClass(ctx, "4A")
	require.NoError(t, err)
	assert.Equal(t, 4, class.GradeLevel)

	term, err := store.GetTerm(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, "2023/2024", term.YearLabel)
	assert.Equal(t, 2, term.Half)

	subject, err := store.GetSubject(ctx, "IPA")
	require.NoError(t, err)
	assert.Equal(t, "IPAS", subject.Name)

	_, err = store.GetClass(ctx, "9Z")
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, err = store.GetSubject(ctx, "XXX")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	roster, err := store.ListRoster(ctx, "4A")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Ani", roster[0].Name)
	assert.Equal(t, "Budi", roster[1].Name)
}

func TestGradeStore_ListObjectivesByParity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name     string
		parity   int
		expected []int
	}{
		{"first half", schema.FirstParity, []int{1, 2}},
		{"second half", schema.SecondParity, []int{1, 3}},
		{"any half", schema.AnyParity, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := store.ListObjectives(ctx, "MTK", schema.PhaseB, tt.parity)
			require.NoError(t, err)
			var ordinals []int
			for _, o := range objs {
				ordinals = append(ordinals, o.Ordinal)
			}
			assert.Equal(t, tt.expected, ordinals)
		})
	}

	objs, err := store.ListObjectives(ctx, "MTK", schema.PhaseA, schema.FirstParity)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestGradeStore_Thresholds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	scope := schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"}

	values, err := store.LoadThresholds(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.SaveThresholds(ctx, scope, map[schema.ColumnKey]*float64{
		"TP1":           schema.Float(70),
		schema.UASKey:   nil,
		schema.FinalKey: schema.Float(80),
	}))

	values, err = store.LoadThresholds(ctx, scope)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 70.0, *values["TP1"], 0.0001)
	assert.Nil(t, values[schema.UASKey])
	_, present := values[schema.UASKey]
	assert.True(t, present)

	// Saving again replaces the whole scope
	require.NoError(t, store.SaveThresholds(ctx, scope, map[schema.ColumnKey]*float64{"TP2": schema.Float(60)}))
	values, err = store.LoadThresholds(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, values, 1)

	// Class-wide thresholds are a separate scope
	classValues, err := store.LoadThresholds(ctx, schema.Scope{ClassID: "4A", TermID: "T1"})
	require.NoError(t, err)
	assert.Empty(t, classValues)
}

func TestGradeStore_TrendRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	records, err := store.ListTrendRecords(ctx, schema.TrendFilter{Grouping: schema.TrendByStudent, StudentID: "s1", SubjectID: "MTK"})
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, r := range records {
		assert.Equal(t, "Matematika", r.Series)
		assert.Equal(t, "2023/2024", r.YearLabel)
	}

	cohort, err := store.ListTrendRecords(ctx, schema.TrendFilter{Grouping: schema.TrendByCohort, Cohort: "2021"})
	require.NoError(t, err)
	require.NotEmpty(t, cohort)
	assert.Equal(t, "Kelas 4A", cohort[0].Series)
}

func TestGradeStore_Batches(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.BeginBatch(ctx, "batch-1", started))
	require.NoError(t, store.EndBatch(ctx, "batch-1", started.Add(time.Second), schema.BulkResult{SuccessCount: 4, FailCount: 1}))

	batches, err := store.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "batch-1", batches[0].BatchID)
	assert.True(t, started.Equal(batches[0].StartedAt))
	require.NotNil(t, batches[0].FinishedAt)
	assert.Equal(t, 4, batches[0].SuccessCount)
	assert.Equal(t, 1, batches[0].FailCount)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 5, status.TotalScores)
	assert.Equal(t, 1, status.TotalBatches)
	assert.Equal(t, "batch-1", status.LastBatchID)
	assert.Equal(t, int64(2), status.TableSizes[studentsTable])
}

func TestClearStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	store, err := NewGradeStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
}

func TestStoreManager(t *testing.T) {
	store, err := NewGradeStore(schema.NoneBackend, "")
	require.NoError(t, err)
	mgr := NewStoreManager(store)
	assert.Same(t, store, mgr.GetGradeStore())
}
