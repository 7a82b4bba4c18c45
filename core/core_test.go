package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/gradestore"
	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newScopeStore returns a mock store that serves twoStudentScope for class 4A, term T1.
func newScopeStore() (*gradestore.MockGradeStore, *gradestore.MockStoreManager) {
	input := twoStudentScope()
	store := &gradestore.MockGradeStore{}
	store.On("GetClass", mock.Anything, "4A").Return(input.Class, nil)
	store.On("GetTerm", mock.Anything, "T1").Return(input.Term, nil)
	store.On("GetSubject", mock.Anything, "MTK").Return(input.Subjects[0], nil)
	store.On("ListRoster", mock.Anything, "4A").Return(input.Roster, nil)
	store.On("ListScopeRecords", mock.Anything, mock.Anything).Return(input.Records, nil)
	store.On("ListObjectives", mock.Anything, "MTK", schema.PhaseB, schema.FirstParity).Return(nil, nil)
	store.On("LoadThresholds", mock.Anything, mock.Anything).Return(map[schema.ColumnKey]*float64{}, nil)

	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)
	return store, mgr
}

func scopeConfig(subject string) *contract.Config {
	return &contract.Config{
		Scope:     schema.Scope{ClassID: "4A", SubjectID: subject, TermID: "T1"},
		Precision: 2,
		Output:    schema.TextOut,
		Locale:    "id",
	}
}

func TestGetSubjectResults(t *testing.T) {
	ctx := context.Background()
	store, mgr := newScopeStore()

	cfg := scopeConfig("MTK")
	cfg.SortKey = "final"
	cfg.SortClicks = 2

	result, err := GetSubjectResults(ctx, cfg, mgr)
	require.NoError(t, err)

	assert.Equal(t, "Matematika", result.Subject.Name)
	assert.Equal(t, schema.PhaseB, result.Phase)
	assert.True(t, result.Manual)
	assert.Equal(t, []schema.ColumnKey{"TP1", "TP2", schema.UASKey}, result.Columns)
	assert.Equal(t, schema.SortDescending, result.SortDirection)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Ayu", result.Rows[0].StudentName, "graded student first when descending")
	assert.InDelta(t, 76.5, *result.Rows[0].FinalGrade, 0.0001)

	store.AssertCalled(t, "ListScopeRecords", mock.Anything, cfg.Scope)
	store.AssertCalled(t, "LoadThresholds", mock.Anything, schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"})
}

func TestGetSubjectResultsRequiresSubject(t *testing.T) {
	_, mgr := newScopeStore()
	_, err := GetSubjectResults(context.Background(), scopeConfig(""), mgr)
	assert.ErrorIs(t, err, ErrEmptyScope)
}

func TestLoadScopeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("incomplete scope", func(t *testing.T) {
		_, mgr := newScopeStore()
		cfg := scopeConfig("MTK")
		cfg.Scope.TermID = ""
		_, err := LoadScope(ctx, cfg, mgr)
		assert.ErrorIs(t, err, ErrEmptyScope)
	})

	t.Run("unknown class", func(t *testing.T) {
		store := &gradestore.MockGradeStore{}
		store.On("GetClass", mock.Anything, "4A").Return(schema.Class{}, fmt.Errorf("class %q: %w", "4A", contract.ErrNotFound))
		mgr := &gradestore.MockStoreManager{}
		mgr.On("GetGradeStore").Return(store)

		_, err := LoadScope(ctx, scopeConfig("MTK"), mgr)
		assert.ErrorIs(t, err, contract.ErrNotFound)
		assert.NotErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("record source down", func(t *testing.T) {
		store := &gradestore.MockGradeStore{}
		store.On("GetClass", mock.Anything, "4A").Return(schema.Class{ID: "4A", GradeLevel: 4}, nil)
		store.On("GetTerm", mock.Anything, "T1").Return(schema.Term{ID: "T1"}, nil)
		store.On("ListRoster", mock.Anything, "4A").Return(nil, nil)
		store.On("ListScopeRecords", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
		mgr := &gradestore.MockStoreManager{}
		mgr.On("GetGradeStore").Return(store)

		_, err := LoadScope(ctx, scopeConfig("MTK"), mgr)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestLoadScopeClassWide(t *testing.T) {
	store, mgr := newScopeStore()
	input, err := LoadScope(context.Background(), scopeConfig(""), mgr)
	require.NoError(t, err)

	// Subjects come from the records when none is selected
	require.Len(t, input.Subjects, 1)
	assert.Equal(t, "MTK", input.Subjects[0].ID)
	assert.Contains(t, input.Objectives, "MTK")
	store.AssertNotCalled(t, "GetSubject", mock.Anything, mock.Anything)
	store.AssertCalled(t, "LoadThresholds", mock.Anything, schema.Scope{ClassID: "4A", TermID: "T1"})
}

// newTwoSubjectStore serves MTK and IPA records for class 4A, term T1,
// with the IPA curriculum lookup failing.
func newTwoSubjectStore() (*gradestore.MockGradeStore, *gradestore.MockStoreManager) {
	input := twoStudentScope()
	records := append(input.Records,
		record("a", "Ayu", "IPA", schema.KindTP, 1, schema.Float(50)),
		record("a", "Ayu", "IPA", schema.KindUAS, 0, schema.Float(40)),
	)

	store := &gradestore.MockGradeStore{}
	store.On("GetClass", mock.Anything, "4A").Return(input.Class, nil)
	store.On("GetTerm", mock.Anything, "T1").Return(input.Term, nil)
	store.On("GetSubject", mock.Anything, "IPA").Return(schema.Subject{ID: "IPA", Name: "IPA"}, nil)
	store.On("ListRoster", mock.Anything, "4A").Return(input.Roster, nil)
	store.On("ListScopeRecords", mock.Anything, mock.Anything).Return(records, nil)
	store.On("ListObjectives", mock.Anything, "MTK", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("ListObjectives", mock.Anything, "IPA", mock.Anything, mock.Anything).Return(nil, errors.New("curriculum service timeout"))
	store.On("LoadThresholds", mock.Anything, mock.Anything).Return(map[schema.ColumnKey]*float64{}, nil)

	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)
	return store, mgr
}

func TestClassWideSubjectFailureIsIsolated(t *testing.T) {
	ctx := context.Background()

	t.Run("class view keeps healthy subjects", func(t *testing.T) {
		_, mgr := newTwoSubjectStore()
		result, err := GetClassResults(ctx, scopeConfig(""), mgr)
		require.NoError(t, err)

		assert.Equal(t, []schema.Subject{{ID: "MTK", Name: "MTK"}}, result.Subjects)
		require.Len(t, result.Unavailable, 1)
		assert.Equal(t, "IPA", result.Unavailable[0].Subject.ID)
		assert.Contains(t, result.Unavailable[0].Error, "curriculum service timeout")

		require.Len(t, result.Rows, 2)
		ayu := result.Rows[0]
		assert.Equal(t, "Ayu", ayu.StudentName)
		require.NotNil(t, ayu.PerSubjectAverage["MTK"])
		assert.InDelta(t, 76.67, *ayu.PerSubjectAverage["MTK"], 0.0001)
		assert.NotContains(t, ayu.PerSubjectAverage, "IPA")
		require.NotNil(t, ayu.FinalGrade)
		assert.InDelta(t, 76.5, *ayu.FinalGrade, 0.0001)
	})

	t.Run("distribution lists the skipped subject", func(t *testing.T) {
		_, mgr := newTwoSubjectStore()
		result, err := GetDistributionResults(ctx, scopeConfig(""), mgr)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Graded)
		require.Len(t, result.Unavailable, 1)
		assert.Equal(t, "IPA", result.Unavailable[0].Subject.ID)
	})

	t.Run("subject scope still fails", func(t *testing.T) {
		_, mgr := newTwoSubjectStore()
		_, err := GetSubjectResults(ctx, scopeConfig("IPA"), mgr)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}

func TestGetClassResults(t *testing.T) {
	_, mgr := newScopeStore()
	cfg := scopeConfig("MTK")
	cfg.SortKey = "name"

	result, err := GetClassResults(context.Background(), cfg, mgr)
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Ayu", result.Rows[0].StudentName)
	assert.Equal(t, 1, result.Ranks["a"])
	assert.Equal(t, 0, result.Ranks["b"])
	require.NotNil(t, result.FinalThreshold)
	assert.Equal(t, 75.0, *result.FinalThreshold)
	assert.Equal(t, []schema.Subject{{ID: "MTK", Name: "MTK"}}, result.Subjects)

	// The caller's scope is not narrowed
	assert.Equal(t, "MTK", cfg.Scope.SubjectID)
}

func TestGetDistributionResults(t *testing.T) {
	_, mgr := newScopeStore()
	result, err := GetDistributionResults(context.Background(), scopeConfig(""), mgr)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Graded)
	assert.Equal(t, 1, result.Excluded)
	require.Len(t, result.Buckets, 5)
	assert.Equal(t, 1, result.Buckets[2].Count)
}

func TestGetObjectiveResults(t *testing.T) {
	_, mgr := newScopeStore()
	result, err := GetObjectiveResults(context.Background(), scopeConfig("MTK"), mgr)
	require.NoError(t, err)
	assert.True(t, result.Manual)
	assert.Equal(t, schema.FirstParity, result.Parity)
	assert.Len(t, result.Objectives, 2, "manual set grows to the highest recorded ordinal")
	assert.Equal(t, 75.0, result.Thresholds["TP2"])
}

func TestGetTrendResults(t *testing.T) {
	ctx := context.Background()

	t.Run("selector required", func(t *testing.T) {
		mgr := &gradestore.MockStoreManager{}
		cfg := &contract.Config{TrendGrouping: schema.TrendByStudent}
		_, err := GetTrendResults(ctx, cfg, mgr)
		assert.ErrorIs(t, err, ErrEmptyScope)
		mgr.AssertNotCalled(t, "GetGradeStore")
	})

	t.Run("student series", func(t *testing.T) {
		store := &gradestore.MockGradeStore{}
		filter := schema.TrendFilter{Grouping: schema.TrendByStudent, StudentID: "a"}
		store.On("ListTrendRecords", mock.Anything, filter).Return([]schema.TrendRecord{
			trendRecord("Matematika", "2024/2025", "Genap", 2, 90),
			trendRecord("Matematika", "2024/2025", "Ganjil", 1, 70),
			trendRecord("Matematika", "2023-2024", "Ganjil", 1, 60),
		}, nil)
		mgr := &gradestore.MockStoreManager{}
		mgr.On("GetGradeStore").Return(store)

		result, err := GetTrendResults(ctx, &contract.Config{TrendGrouping: schema.TrendByStudent, StudentID: "a"}, mgr)
		require.NoError(t, err)
		require.Len(t, result.Points, 3)
		assert.Equal(t, "2023-2024 Ganjil", result.Points[0].PeriodKey)
		assert.Equal(t, "2024/2025 Ganjil", result.Points[1].PeriodKey)
		assert.Equal(t, []string{"Matematika"}, result.Series)
		assert.Equal(t, []string{"2023-2024"}, result.NonCanonicalYears)
	})

	t.Run("source down", func(t *testing.T) {
		store := &gradestore.MockGradeStore{}
		store.On("ListTrendRecords", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
		mgr := &gradestore.MockStoreManager{}
		mgr.On("GetGradeStore").Return(store)

		_, err := GetTrendResults(ctx, &contract.Config{TrendGrouping: schema.TrendByClass, Scope: schema.Scope{ClassID: "4A"}}, mgr)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}

func TestUpdateThresholds(t *testing.T) {
	ctx := context.Background()
	scope := schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"}

	store := &gradestore.MockGradeStore{}
	store.On("LoadThresholds", mock.Anything, scope).Return(map[schema.ColumnKey]*float64{
		"TP1":         schema.Float(70),
		schema.UASKey: schema.Float(60),
	}, nil)
	store.On("SaveThresholds", mock.Anything, scope, map[schema.ColumnKey]*float64{
		"TP1":         schema.Float(70),
		schema.UASKey: nil,
		"TP2":         schema.Float(80),
	}).Return(nil)
	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)

	err := UpdateThresholds(ctx, scopeConfig("MTK"), mgr, map[schema.ColumnKey]*float64{
		schema.UASKey: nil,
		"TP2":         schema.Float(80),
	})
	require.NoError(t, err)
	store.AssertExpectations(t)

	err = UpdateThresholds(ctx, scopeConfig("MTK"), mgr, map[schema.ColumnKey]*float64{"TP1": schema.Float(120)})
	assert.Error(t, err)

	err = UpdateThresholds(ctx, &contract.Config{}, mgr, nil)
	assert.ErrorIs(t, err, ErrEmptyScope)
}

func TestSaveGrades(t *testing.T) {
	store := &gradestore.MockGradeStore{}
	store.On("BeginBatch", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	store.On("UpsertScore", mock.Anything, mock.Anything).Return(nil)
	store.On("EndBatch", mock.Anything, mock.AnythingOfType("string"), mock.Anything,
		mock.MatchedBy(func(r schema.BulkResult) bool { return r.SuccessCount == 2 && r.FailCount == 0 })).
		Return(errors.New("log table missing"))
	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)

	cfg := scopeConfig("MTK")
	result := SaveGrades(context.Background(), cfg, mgr, []schema.ScoreWrite{
		scoreWrite("a", 1, 80),
		scoreWrite("b", 0, 70),
	})

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, "2 saved, 0 failed", result.Message())
	store.AssertExpectations(t)
}

func TestExecuteSubjectSummaryJSON(t *testing.T) {
	_, mgr := newScopeStore()
	cfg := scopeConfig("MTK")
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "subject.json")

	require.NoError(t, ExecuteSubjectSummary(WithSuppressHeader(context.Background()), cfg, mgr))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var result schema.SubjectResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Rows, 2)
	assert.True(t, result.Rows[0].Below["TP1"])
}

func TestExecuteSave(t *testing.T) {
	store := &gradestore.MockGradeStore{}
	store.On("BeginBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("UpsertScore", mock.Anything, mock.Anything).Return(nil)
	store.On("EndBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)

	dir := t.TempDir()
	input := filepath.Join(dir, "grades.csv")
	require.NoError(t, os.WriteFile(input, []byte("student_id,subject_id,column,value\na,MTK,TP1,80\nb,MTK,UAS,70\n"), 0o644))

	cfg := scopeConfig("MTK")
	cfg.InputFile = input
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(dir, "result.json")
	require.NoError(t, ExecuteSave(context.Background(), cfg, mgr))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var result schema.BulkResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2, result.SuccessCount)
	store.AssertNumberOfCalls(t, "UpsertScore", 2)

	cfg.InputFile = filepath.Join(dir, "missing.csv")
	assert.Error(t, ExecuteSave(context.Background(), cfg, mgr))
}

func TestExecuteSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"classes":[{"id":"4A","name":"4A","grade_level":4}]}`), 0o644))

	store := &gradestore.MockGradeStore{}
	store.On("Seed", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Seed", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)

	cfg := scopeConfig("")
	cfg.InputFile = path
	require.NoError(t, ExecuteSeed(context.Background(), cfg, mgr))

	err := ExecuteSeed(context.Background(), cfg, mgr)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	cfg.InputFile = ""
	assert.Error(t, ExecuteSeed(context.Background(), cfg, mgr))
}
