package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/raporkit/rapor/internal/gradestore"
	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func scoreWrite(student string, ordinal int, v float64) schema.ScoreWrite {
	op := schema.ScoreWrite{StudentID: student, SubjectID: "MTK", ClassID: "4A", TermID: "T1", Value: schema.Float(v)}
	if ordinal == 0 {
		op.Kind = schema.KindUAS
	} else {
		op.Kind = schema.KindTP
		op.Ordinal = ordinal
	}
	return op
}

// collectWarnings records warnings from concurrent writes.
type collectWarnings struct {
	mu   sync.Mutex
	msgs []string
}

func (c *collectWarnings) warn(msg string, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func TestBulkWriteCoordinator(t *testing.T) {
	ops := []schema.ScoreWrite{
		scoreWrite("s1", 1, 80),
		scoreWrite("s2", 1, 70),
		scoreWrite("bad", 1, 90),
		scoreWrite("s3", 0, 85),
		scoreWrite("bad", 0, 60),
	}

	for _, workers := range []int{0, 1, 3} {
		store := &gradestore.MockGradeStore{}
		store.On("UpsertScore", mock.Anything, mock.MatchedBy(func(op schema.ScoreWrite) bool { return op.StudentID == "bad" })).
			Return(errors.New("deadlock"))
		store.On("UpsertScore", mock.Anything, mock.MatchedBy(func(op schema.ScoreWrite) bool { return op.StudentID != "bad" })).
			Return(nil)

		warnings := &collectWarnings{}
		result := NewBulkWriteCoordinator(store, workers).WithWarn(warnings.warn).Save(context.Background(), ops)

		assert.Equal(t, 3, result.SuccessCount, "workers=%d", workers)
		assert.Equal(t, 2, result.FailCount, "workers=%d", workers)
		assert.Equal(t, "3 saved, 2 failed", result.Message())
		assert.Len(t, warnings.msgs, 2)
		store.AssertNumberOfCalls(t, "UpsertScore", len(ops))
	}
}

func TestBulkWriteCoordinatorValidation(t *testing.T) {
	store := &gradestore.MockGradeStore{}
	store.On("UpsertScore", mock.Anything, mock.Anything).Return(nil)

	invalid := []schema.ScoreWrite{
		{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindTP, Ordinal: 0, Value: schema.Float(80)},
		{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS, Value: schema.Float(101)},
		{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: "PTS"},
		{SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS},
	}
	valid := []schema.ScoreWrite{
		scoreWrite("s1", 2, 0),
		{StudentID: "s1", SubjectID: "MTK", ClassID: "4A", TermID: "T1", Kind: schema.KindUAS}, // clearing a cell
	}

	warnings := &collectWarnings{}
	ctx := withBatchID(context.Background(), "b-42")
	result := NewBulkWriteCoordinator(store, 0).WithWarn(warnings.warn).Save(ctx, append(invalid, valid...))

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 4, result.FailCount)
	store.AssertNumberOfCalls(t, "UpsertScore", 2)
	for _, msg := range warnings.msgs {
		assert.Contains(t, msg, "save b-42 #")
	}
}

func TestBulkWriteCoordinatorEmpty(t *testing.T) {
	store := &gradestore.MockGradeStore{}
	result := NewBulkWriteCoordinator(store, 0).Save(context.Background(), nil)
	assert.Equal(t, schema.BulkResult{}, result)
	assert.Equal(t, "0 saved, 0 failed", result.Message())
}

func TestBulkWriteCoordinatorIgnoresCancel(t *testing.T) {
	store := &gradestore.MockGradeStore{}
	store.On("UpsertScore", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := NewBulkWriteCoordinator(store, 2).WithWarn(func(string, error) {}).Save(ctx, []schema.ScoreWrite{scoreWrite("s1", 1, 80)})
	assert.Equal(t, 1, result.SuccessCount)
}
