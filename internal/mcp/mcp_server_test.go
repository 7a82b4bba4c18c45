package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/gradestore"
	mcp_internal "github.com/raporkit/rapor/internal/mcp"
	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func baseConfig() *contract.Config {
	return &contract.Config{
		Precision:    2,
		Output:       schema.JSONOut,
		Locale:       "id",
		StoreBackend: schema.NoneBackend,
		Weights:      schema.DefaultGradeWeights(),
	}
}

// newStore serves one class with two students graded in Matematika.
func newStore() (*gradestore.MockGradeStore, *gradestore.MockStoreManager) {
	class := schema.Class{ID: "4A", Name: "Kelas 4A", GradeLevel: 4}
	term := schema.Term{ID: "T1", Name: "Ganjil", YearLabel: "2024/2025", Half: 1}
	subject := schema.Subject{ID: "MTK", Name: "Matematika"}
	roster := []schema.Student{{ID: "s1", Name: "Ayu", ClassID: "4A"}, {ID: "s2", Name: "Bayu", ClassID: "4A"}}
	rec := func(student, name string, kind schema.AssessmentKind, ordinal int, v float64) schema.AssessmentRecord {
		return schema.AssessmentRecord{
			StudentID: student, StudentName: name, SubjectID: "MTK", SubjectName: "Matematika",
			ClassID: "4A", TermID: "T1", Kind: kind, Ordinal: ordinal, Value: schema.Float(v),
		}
	}
	records := []schema.AssessmentRecord{
		rec("s1", "Ayu", schema.KindTP, 1, 80),
		rec("s1", "Ayu", schema.KindUAS, 0, 70),
		rec("s2", "Bayu", schema.KindTP, 1, 95),
		rec("s2", "Bayu", schema.KindUAS, 0, 90),
	}
	objectives := []schema.LearningObjective{{SubjectID: "MTK", Phase: schema.PhaseB, Description: "Bilangan cacah", RawThreshold: "70"}}

	store := &gradestore.MockGradeStore{}
	store.On("GetClass", mock.Anything, "4A").Return(class, nil)
	store.On("GetTerm", mock.Anything, "T1").Return(term, nil)
	store.On("GetSubject", mock.Anything, "MTK").Return(subject, nil)
	store.On("ListRoster", mock.Anything, "4A").Return(roster, nil)
	store.On("ListScopeRecords", mock.Anything, mock.Anything).Return(records, nil)
	store.On("ListObjectives", mock.Anything, "MTK", schema.PhaseB, schema.FirstParity).Return(objectives, nil)
	store.On("LoadThresholds", mock.Anything, mock.Anything).Return(map[schema.ColumnKey]*float64{}, nil)

	mgr := &gradestore.MockStoreManager{}
	mgr.On("GetGradeStore").Return(store)
	return store, mgr
}

func callTool(t *testing.T, mgr contract.StoreManager, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseConfig(), mgr)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServer_RegistersTools(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil)
	for _, name := range []string{"get_subject_summary", "get_class_summary", "get_distribution", "get_trend", "get_objectives", "save_grades"} {
		assert.NotNil(t, s.GetTool(name), "Tool %s should exist", name)
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	_, mgr := newStore()

	t.Run("get_subject_summary missing subject", func(t *testing.T) {
		res := callTool(t, mgr, "get_subject_summary", map[string]any{"class": "4A", "term": "T1"})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, resultText(res), "subject is required")
	})

	t.Run("get_trend invalid grouping", func(t *testing.T) {
		res := callTool(t, mgr, "get_trend", map[string]any{"group_by": "school"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "group_by must be student, class or cohort")
	})

	t.Run("get_trend without selector", func(t *testing.T) {
		res := callTool(t, mgr, "get_trend", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "one of student, class or cohort is required")
	})

	t.Run("save_grades malformed batch", func(t *testing.T) {
		res := callTool(t, mgr, "save_grades", map[string]any{"grades": "{not json"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid grades")
	})
}

func TestMCPServerHandlers_SubjectSummary(t *testing.T) {
	_, mgr := newStore()

	res := callTool(t, mgr, "get_subject_summary", map[string]any{
		"class": "4A", "subject": "MTK", "term": "T1", "sort": "final", "clicks": 2.0,
	})
	require.False(t, res.IsError, resultText(res))

	var got schema.SubjectResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	assert.False(t, got.Manual)
	assert.Equal(t, []schema.ColumnKey{"TP1", schema.UASKey}, got.Columns)
	assert.Equal(t, schema.SortDescending, got.SortDirection)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Bayu", got.Rows[0].StudentName)
	require.NotNil(t, got.Rows[0].FinalGrade)
	assert.InDelta(t, 93.5, *got.Rows[0].FinalGrade, 0.0001)
}

func TestMCPServerHandlers_ClassAndDistribution(t *testing.T) {
	_, mgr := newStore()

	res := callTool(t, mgr, "get_class_summary", map[string]any{"class": "4A", "term": "T1"})
	require.False(t, res.IsError, resultText(res))
	var class schema.ClassResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &class))
	assert.Equal(t, 1, class.Ranks["s2"])
	assert.Equal(t, 2, class.Ranks["s1"])

	res = callTool(t, mgr, "get_distribution", map[string]any{"class": "4A", "term": "T1"})
	require.False(t, res.IsError, resultText(res))
	var dist schema.DistributionResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &dist))
	assert.Equal(t, 2, dist.Graded)
	require.Len(t, dist.Buckets, 5)
}

func TestMCPServerHandlers_Objectives(t *testing.T) {
	_, mgr := newStore()

	res := callTool(t, mgr, "get_objectives", map[string]any{"class": "4A", "subject": "MTK", "term": "T1"})
	require.False(t, res.IsError, resultText(res))

	var got schema.ObjectiveResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	require.Len(t, got.Objectives, 1)
	assert.Equal(t, "Bilangan cacah", got.Objectives[0].Description)
	assert.Equal(t, 70.0, got.Thresholds["TP1"])
}

func TestMCPServerHandlers_Trend(t *testing.T) {
	store, mgr := newStore()
	store.On("ListTrendRecords", mock.Anything, schema.TrendFilter{Grouping: schema.TrendByStudent, StudentID: "s1"}).Return([]schema.TrendRecord{
		{Series: "Matematika", YearLabel: "2024/2025", TermName: "Ganjil", TermHalf: 1, Value: schema.Float(80)},
		{Series: "Matematika", YearLabel: "2023/2024", TermName: "Genap", TermHalf: 2, Value: schema.Float(70)},
	}, nil)

	res := callTool(t, mgr, "get_trend", map[string]any{"student": "s1"})
	require.False(t, res.IsError, resultText(res))

	var got schema.TrendResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	require.Len(t, got.Points, 2)
	assert.Equal(t, "2023/2024", got.Points[0].YearLabel)
	assert.Equal(t, []string{"Matematika"}, got.Series)
}

func TestMCPServerHandlers_SaveGrades(t *testing.T) {
	store, mgr := newStore()
	store.On("BeginBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("EndBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("UpsertScore", mock.Anything, mock.Anything).Return(nil)

	grades := `[
		{"student_id": "s1", "kind": "TP", "ordinal": 2, "value": 88},
		{"student_id": "s2", "kind": "UAS", "value": 91},
		{"student_id": "s2", "kind": "TP", "ordinal": 1, "value": 140}
	]`
	res := callTool(t, mgr, "save_grades", map[string]any{
		"grades": grades, "class": "4A", "subject": "MTK", "term": "T1",
	})
	require.False(t, res.IsError, resultText(res))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	assert.Equal(t, float64(2), got["success_count"])
	assert.Equal(t, float64(1), got["fail_count"])
	assert.Equal(t, "2 saved, 1 failed", got["message"])
	assert.NotEmpty(t, got["batch_id"])

	store.AssertNumberOfCalls(t, "UpsertScore", 2)
}
