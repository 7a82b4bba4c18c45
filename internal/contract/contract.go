// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/raporkit/rapor/schema"
)

// ErrNotFound is returned by stores when a class, term or subject does not exist.
var ErrNotFound = errors.New("not found")

// RecordSource supplies raw assessment rows and the reference data around them.
type RecordSource interface {
	// ListScopeRecords returns every score row of a class and term. An empty
	// scope.SubjectID means all subjects.
	ListScopeRecords(ctx context.Context, scope schema.Scope) ([]schema.AssessmentRecord, error)

	// ListTrendRecords returns multi-period rows labelled with their series.
	ListTrendRecords(ctx context.Context, filter schema.TrendFilter) ([]schema.TrendRecord, error)

	// ListRoster returns the students enrolled in a class.
	ListRoster(ctx context.Context, classID string) ([]schema.Student, error)

	GetClass(ctx context.Context, id string) (schema.Class, error)
	GetTerm(ctx context.Context, id string) (schema.Term, error)
	GetSubject(ctx context.Context, id string) (schema.Subject, error)
}

// CurriculumSource supplies learning objectives.
type CurriculumSource interface {
	// ListObjectives returns objectives for a subject and phase whose parity
	// matches or is unrestricted, ordered by ordinal.
	ListObjectives(ctx context.Context, subjectID string, phase schema.Phase, parity int) ([]schema.LearningObjective, error)
}

// ThresholdStore persists user-edited thresholds per scope.
// A nil value is an explicit "no threshold" for that column.
type ThresholdStore interface {
	LoadThresholds(ctx context.Context, scope schema.Scope) (map[schema.ColumnKey]*float64, error)
	SaveThresholds(ctx context.Context, scope schema.Scope, values map[schema.ColumnKey]*float64) error
}

// GradeWriter upserts a single grade cell keyed by (student, subject, term, kind, ordinal).
type GradeWriter interface {
	UpsertScore(ctx context.Context, op schema.ScoreWrite) error
}

// BatchLog records bulk save batches.
type BatchLog interface {
	BeginBatch(ctx context.Context, batchID string, startedAt time.Time) error
	EndBatch(ctx context.Context, batchID string, finishedAt time.Time, result schema.BulkResult) error
	ListBatches(ctx context.Context) ([]schema.SaveBatchRecord, error)
}

// GradeStore is the full persistence surface used by the engine.
type GradeStore interface {
	RecordSource
	CurriculumSource
	ThresholdStore
	GradeWriter
	BatchLog

	// Seed inserts or replaces reference data and scores.
	Seed(ctx context.Context, data schema.Dataset) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager hands out the configured store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetGradeStore() GradeStore
}
