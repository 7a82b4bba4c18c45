package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExportFiles(t *testing.T) {
	files := exportFiles("/tmp/rapor")
	assert.Equal(t, "/tmp/rapor.grades.parquet", files.Grades)
	assert.Equal(t, "/tmp/rapor.subjects.parquet", files.Subjects)
	assert.Equal(t, "/tmp/rapor.students.parquet", files.Students)
	assert.Equal(t, "/tmp/rapor.save_batches.parquet", files.Batches)
}

func TestExecuteExport(t *testing.T) {
	store, mgr := newScopeStore()
	finished := time.Date(2025, 1, 6, 8, 0, 2, 0, time.UTC)
	store.On("ListBatches", mock.Anything).Return([]schema.SaveBatchRecord{
		{BatchID: "b-1", StartedAt: finished.Add(-2 * time.Second), FinishedAt: &finished, SuccessCount: 3},
	}, nil)

	cfg := scopeConfig("")
	cfg.OutputFile = filepath.Join(t.TempDir(), "rapor")

	require.NoError(t, ExecuteExport(context.Background(), cfg, mgr))

	files := exportFiles(cfg.OutputFile)
	for _, path := range []string{files.Grades, files.Subjects, files.Students, files.Batches} {
		info, err := os.Stat(path)
		require.NoError(t, err, "expected %s", path)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExecuteExportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing output file", func(t *testing.T) {
		_, mgr := newScopeStore()
		err := ExecuteExport(ctx, scopeConfig(""), mgr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-file is required")
	})

	t.Run("batch log down", func(t *testing.T) {
		store, mgr := newScopeStore()
		store.On("ListBatches", mock.Anything).Return(nil, errors.New("disk I/O error"))
		cfg := scopeConfig("")
		cfg.OutputFile = filepath.Join(t.TempDir(), "rapor")

		err := ExecuteExport(ctx, cfg, mgr)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}
