package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fallbackScope = schema.Scope{ClassID: "4A", SubjectID: "MTK", TermID: "T1"}

func TestParseScoreWritesCSV(t *testing.T) {
	t.Run("column keys", func(t *testing.T) {
		data := "student_id,subject_id,column,value\ns1,MTK,TP2,\"87,5\"\ns2,,uas,90\ns3,IPA,TP1,\n"
		ops, err := ParseScoreWritesCSV(strings.NewReader(data), fallbackScope)
		require.NoError(t, err)
		require.Len(t, ops, 3)

		assert.Equal(t, schema.KindTP, ops[0].Kind)
		assert.Equal(t, 2, ops[0].Ordinal)
		assert.Equal(t, 87.5, *ops[0].Value)
		assert.Equal(t, "4A", ops[0].ClassID)
		assert.Equal(t, "T1", ops[0].TermID)

		assert.Equal(t, schema.KindUAS, ops[1].Kind)
		assert.Equal(t, "MTK", ops[1].SubjectID, "empty subject inherits the scope")

		assert.Equal(t, "IPA", ops[2].SubjectID)
		assert.Nil(t, ops[2].Value, "empty value clears the cell")
	})

	t.Run("kind and ordinal", func(t *testing.T) {
		data := "student_id,subject_id,class_id,term_id,kind,ordinal,value\ns1,MTK,5B,T2,tp,3,70\n"
		ops, err := ParseScoreWritesCSV(strings.NewReader(data), fallbackScope)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, schema.ScoreWrite{
			StudentID: "s1", SubjectID: "MTK", ClassID: "5B", TermID: "T2",
			Kind: schema.KindTP, Ordinal: 3, Value: schema.Float(70),
		}, ops[0])
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"missing value column", "student_id,subject_id,column\ns1,MTK,TP1\n"},
			{"missing column and kind", "student_id,subject_id,value\ns1,MTK,70\n"},
			{"bad value", "student_id,subject_id,column,value\ns1,MTK,TP1,tinggi\n"},
			{"bad column", "student_id,subject_id,column,value\ns1,MTK,PTS,70\n"},
			{"final is not writable", "student_id,subject_id,column,value\ns1,MTK,FINAL,70\n"},
			{"bad ordinal", "student_id,subject_id,kind,ordinal,value\ns1,MTK,TP,x,70\n"},
			{"empty", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseScoreWritesCSV(strings.NewReader(tt.data), fallbackScope)
				assert.Error(t, err)
			})
		}
	})
}

func TestParseScoreWritesJSON(t *testing.T) {
	data := `[{"student_id":"s1","kind":"TP","ordinal":1,"value":80},{"student_id":"s2","subject_id":"IPA","term_id":"T9","kind":"UAS","value":null}]`
	ops, err := ParseScoreWritesJSON(strings.NewReader(data), fallbackScope)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "MTK", ops[0].SubjectID)
	assert.Equal(t, "4A", ops[0].ClassID)
	assert.Equal(t, "T9", ops[1].TermID)
	assert.Nil(t, ops[1].Value)

	_, err = ParseScoreWritesJSON(strings.NewReader("{not json"), fallbackScope)
	assert.Error(t, err)
}

func TestReadScoreWritesFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "grades.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("student_id,subject_id,column,value\ns1,MTK,TP1,80\n"), 0o644))
	ops, err := ReadScoreWritesFile(csvPath, fallbackScope)
	require.NoError(t, err)
	assert.Len(t, ops, 1)

	jsonPath := filepath.Join(dir, "grades.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[]`), 0o644))
	ops, err = ReadScoreWritesFile(jsonPath, fallbackScope)
	require.NoError(t, err)
	assert.Empty(t, ops)

	txtPath := filepath.Join(dir, "grades.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = ReadScoreWritesFile(txtPath, fallbackScope)
	assert.Error(t, err)

	_, err = ReadScoreWritesFile("", fallbackScope)
	assert.Error(t, err)
	_, err = ReadScoreWritesFile(filepath.Join(dir, "missing.csv"), fallbackScope)
	assert.Error(t, err)
}

func TestNewBatchID(t *testing.T) {
	a, b := newBatchID(), newBatchID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestReadDatasetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	body := `{"students":[{"id":"s1","name":"Ayu","class_id":"4A"}],"scores":[{"student_id":"s1","subject_id":"MTK","term_id":"T1","kind":"TP","ordinal":1,"value":80}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	data, err := ReadDatasetFile(path)
	require.NoError(t, err)
	require.Len(t, data.Students, 1)
	assert.Equal(t, "Ayu", data.Students[0].Name)
	require.Len(t, data.Scores, 1)
	assert.Equal(t, 80.0, *data.Scores[0].Value)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadDatasetFile(bad)
	assert.Error(t, err)

	_, err = ReadDatasetFile("")
	assert.Error(t, err)
}
