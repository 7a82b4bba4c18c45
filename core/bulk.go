package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	"golang.org/x/sync/errgroup"
)

// WarnFunc reports a single failed operation.
type WarnFunc func(msg string, err error)

// BulkWriteCoordinator dispatches independent grade upserts concurrently.
// There is no atomicity across a batch: every failure is reported and counted
// and never cancels or rolls back its siblings.
type BulkWriteCoordinator struct {
	writer   contract.GradeWriter
	validate *validator.Validate
	workers  int
	warn     WarnFunc
}

// NewBulkWriteCoordinator returns a coordinator writing through w.
// workers <= 0 starts one goroutine per operation.
func NewBulkWriteCoordinator(w contract.GradeWriter, workers int) *BulkWriteCoordinator {
	return &BulkWriteCoordinator{
		writer:   w,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		workers:  workers,
		warn:     contract.LogWarn,
	}
}

// WithWarn replaces the failure reporter.
func (c *BulkWriteCoordinator) WithWarn(warn WarnFunc) *BulkWriteCoordinator {
	c.warn = warn
	return c
}

// Save fires all operations and waits for them to finish. Cancelling ctx
// after dispatch does not abort writes already in flight.
func (c *BulkWriteCoordinator) Save(ctx context.Context, ops []schema.ScoreWrite) schema.BulkResult {
	var success, fail atomic.Int64
	writeCtx := context.WithoutCancel(ctx)
	label := "save"
	if id, ok := getBatchID(ctx); ok {
		label = "save " + id
	}

	var g errgroup.Group
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	for i, op := range ops {
		g.Go(func() error {
			if err := c.saveOne(writeCtx, op); err != nil {
				fail.Add(1)
				c.warn(fmt.Sprintf("%s #%d (%s %s %s)", label, i+1, op.StudentID, op.SubjectID, opColumn(op)), err)
				return nil
			}
			success.Add(1)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	return schema.BulkResult{
		SuccessCount: int(success.Load()),
		FailCount:    int(fail.Load()),
	}
}

// ValidateWrite checks a single operation without writing it.
func (c *BulkWriteCoordinator) ValidateWrite(op schema.ScoreWrite) error {
	if err := c.validate.Struct(op); err != nil {
		return fmt.Errorf("invalid grade: %w", err)
	}
	return nil
}

func (c *BulkWriteCoordinator) saveOne(ctx context.Context, op schema.ScoreWrite) error {
	if err := c.ValidateWrite(op); err != nil {
		return err
	}
	return c.writer.UpsertScore(ctx, op)
}

func opColumn(op schema.ScoreWrite) schema.ColumnKey {
	if op.Kind == schema.KindTP {
		return schema.TPKey(op.Ordinal)
	}
	return schema.ColumnKey(op.Kind)
}
