package gradestore

import (
	"context"
	"time"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetGradeStore implements the StoreManager interface.
func (m *MockStoreManager) GetGradeStore() contract.GradeStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.GradeStore)
	return store
}

// MockGradeStore is a mock implementation of GradeStore for testing.
type MockGradeStore struct {
	mock.Mock
}

var _ contract.GradeStore = &MockGradeStore{} // Compile-time check

// ListScopeRecords implements the GradeStore interface.
func (m *MockGradeStore) ListScopeRecords(ctx context.Context, scope schema.Scope) ([]schema.AssessmentRecord, error) {
	args := m.Called(ctx, scope)
	records, _ := args.Get(0).([]schema.AssessmentRecord)
	return records, args.Error(1)
}

// ListTrendRecords implements the GradeStore interface.
func (m *MockGradeStore) ListTrendRecords(ctx context.Context, filter schema.TrendFilter) ([]schema.TrendRecord, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]schema.TrendRecord)
	return records, args.Error(1)
}

// ListRoster implements the GradeStore interface.
func (m *MockGradeStore) ListRoster(ctx context.Context, classID string) ([]schema.Student, error) {
	args := m.Called(ctx, classID)
	students, _ := args.Get(0).([]schema.Student)
	return students, args.Error(1)
}

// GetClass implements the GradeStore interface.
func (m *MockGradeStore) GetClass(ctx context.Context, id string) (schema.Class, error) {
	args := m.Called(ctx, id)
	class, _ := args.Get(0).(schema.Class)
	return class, args.Error(1)
}

// GetTerm implements the GradeStore interface.
func (m *MockGradeStore) GetTerm(ctx context.Context, id string) (schema.Term, error) {
	args := m.Called(ctx, id)
	term, _ := args.Get(0).(schema.Term)
	return term, args.Error(1)
}

// GetSubject implements the GradeStore interface.
func (m *MockGradeStore) GetSubject(ctx context.Context, id string) (schema.Subject, error) {
	args := m.Called(ctx, id)
	subject, _ := args.Get(0).(schema.Subject)
	return subject, args.Error(1)
}

// ListObjectives implements the GradeStore interface.
func (m *MockGradeStore) ListObjectives(ctx context.Context, subjectID string, phase schema.Phase, parity int) ([]schema.LearningObjective, error) {
	args := m.Called(ctx, subjectID, phase, parity)
	objectives, _ := args.Get(0).([]schema.LearningObjective)
	return objectives, args.Error(1)
}

// LoadThresholds implements the GradeStore interface.
func (m *MockGradeStore) LoadThresholds(ctx context.Context, scope schema.Scope) (map[schema.ColumnKey]*float64, error) {
	args := m.Called(ctx, scope)
	values, _ := args.Get(0).(map[schema.ColumnKey]*float64)
	return values, args.Error(1)
}

// SaveThresholds implements the GradeStore interface.
func (m *MockGradeStore) SaveThresholds(ctx context.Context, scope schema.Scope, values map[schema.ColumnKey]*float64) error {
	args := m.Called(ctx, scope, values)
	return args.Error(0)
}

// UpsertScore implements the GradeStore interface.
func (m *MockGradeStore) UpsertScore(ctx context.Context, op schema.ScoreWrite) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

// BeginBatch implements the GradeStore interface.
func (m *MockGradeStore) BeginBatch(ctx context.Context, batchID string, startedAt time.Time) error {
	args := m.Called(ctx, batchID, startedAt)
	return args.Error(0)
}

// EndBatch implements the GradeStore interface.
func (m *MockGradeStore) EndBatch(ctx context.Context, batchID string, finishedAt time.Time, result schema.BulkResult) error {
	args := m.Called(ctx, batchID, finishedAt, result)
	return args.Error(0)
}

// ListBatches implements the GradeStore interface.
func (m *MockGradeStore) ListBatches(ctx context.Context) ([]schema.SaveBatchRecord, error) {
	args := m.Called(ctx)
	batches, _ := args.Get(0).([]schema.SaveBatchRecord)
	return batches, args.Error(1)
}

// Seed implements the GradeStore interface.
func (m *MockGradeStore) Seed(ctx context.Context, data schema.Dataset) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

// GetStatus implements the GradeStore interface.
func (m *MockGradeStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the GradeStore interface.
func (m *MockGradeStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
