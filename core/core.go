// Package core has core logic for grade aggregation, thresholds and reporting.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raporkit/rapor/core/agg"
	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/outwriter"
	"github.com/raporkit/rapor/schema"
)

// Scope-level errors. Missing grades are never errors; they stay nil.
var (
	// ErrSourceUnavailable means the record or curriculum source failed to answer.
	// It blocks the affected scope only.
	ErrSourceUnavailable = errors.New("grade source unavailable")

	// ErrEmptyScope means the selection is incomplete.
	ErrEmptyScope = errors.New("scope is incomplete")
)

// ExecuteSubjectSummary prints the subject-teacher pivot of the configured scope.
func ExecuteSubjectSummary(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetSubjectResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogScopeHeader(cfg, result.Class, result.Term, result.Subject.Name)
	}
	return outwriter.PrintSubjectResults(result, cfg, time.Since(start))
}

// ExecuteClassSummary prints the homeroom summary of the configured class and term.
func ExecuteClassSummary(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetClassResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogScopeHeader(cfg, result.Class, result.Term, "")
	}
	return outwriter.PrintClassResults(result, cfg, time.Since(start))
}

// ExecuteDistribution prints the letter-grade distribution of the configured class and term.
func ExecuteDistribution(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetDistributionResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogScopeHeader(cfg, result.Class, result.Term, "")
	}
	return outwriter.PrintDistributionResults(result, cfg, time.Since(start))
}

// ExecuteTrend prints the multi-period trend selected by the configuration.
func ExecuteTrend(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetTrendResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	for _, label := range result.NonCanonicalYears {
		contract.LogWarn("Trend ordering", fmt.Errorf("year label %q is not YYYY/YYYY and may sort out of order", label))
	}
	return outwriter.PrintTrendResults(result, cfg, time.Since(start))
}

// ExecuteObjectives prints the resolved objective columns of the configured scope.
func ExecuteObjectives(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := GetObjectiveResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogScopeHeader(cfg, result.Class, result.Term, result.Subject.Name)
	}
	return outwriter.PrintObjectiveResults(result, cfg, time.Since(start))
}

// ExecuteSave reads a grade batch from cfg.InputFile and saves it.
// Individual failures are reported in the summary, not returned.
func ExecuteSave(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	ops, err := ReadScoreWritesFile(cfg.InputFile, cfg.Scope)
	if err != nil {
		return err
	}
	result := SaveGrades(ctx, cfg, mgr, ops)
	return outwriter.PrintBulkResult(result, cfg, time.Since(start))
}

// LoadScope reads everything the configured scope needs from the store.
// This is the only read-side function with I/O.
func LoadScope(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (ScopeInput, error) {
	scope := cfg.Scope
	if scope.ClassID == "" || scope.TermID == "" {
		return ScopeInput{}, fmt.Errorf("%w: class and term are required", ErrEmptyScope)
	}
	store := mgr.GetGradeStore()

	class, err := store.GetClass(ctx, scope.ClassID)
	if err != nil {
		return ScopeInput{}, sourceError("class "+scope.ClassID, err)
	}
	term, err := store.GetTerm(ctx, scope.TermID)
	if err != nil {
		return ScopeInput{}, sourceError("term "+scope.TermID, err)
	}
	roster, err := store.ListRoster(ctx, scope.ClassID)
	if err != nil {
		return ScopeInput{}, sourceError("roster", err)
	}
	records, err := store.ListScopeRecords(ctx, scope)
	if err != nil {
		return ScopeInput{}, sourceError("records", err)
	}

	input := ScopeInput{
		Class:             class,
		Term:              term,
		Roster:            roster,
		Records:           records,
		Objectives:        make(map[string]ObjectiveSet),
		SubjectThresholds: make(map[string]map[schema.ColumnKey]*float64),
	}

	var candidates []schema.Subject
	if scope.SubjectID != "" {
		subject, err := store.GetSubject(ctx, scope.SubjectID)
		if err != nil {
			return ScopeInput{}, sourceError("subject "+scope.SubjectID, err)
		}
		candidates = []schema.Subject{subject}
	} else {
		candidates = agg.SubjectsOf(records)
	}

	// A failing subject blocks a subject scope, but only itself in a class-wide scope
	for _, subject := range candidates {
		set, stored, err := loadSubject(ctx, store, scope, subject, class, term)
		if err != nil {
			if scope.SubjectID != "" {
				return ScopeInput{}, err
			}
			input.Unavailable = append(input.Unavailable, schema.SubjectIssue{Subject: subject, Error: err.Error()})
			continue
		}
		input.Subjects = append(input.Subjects, subject)
		input.Objectives[subject.ID] = set
		input.SubjectThresholds[subject.ID] = stored
	}

	classStored, err := store.LoadThresholds(ctx, schema.Scope{ClassID: scope.ClassID, TermID: scope.TermID})
	if err != nil {
		return ScopeInput{}, sourceError("thresholds", err)
	}
	input.ClassThresholds = classStored
	return input, nil
}

// loadSubject resolves the objectives and stored thresholds of one subject in the scope.
func loadSubject(ctx context.Context, store contract.GradeStore, scope schema.Scope, subject schema.Subject, class schema.Class, term schema.Term) (ObjectiveSet, map[schema.ColumnKey]*float64, error) {
	set, err := ResolveObjectives(ctx, store, subject.ID, class, term)
	if err != nil {
		return ObjectiveSet{}, nil, err
	}
	stored, err := store.LoadThresholds(ctx, schema.Scope{ClassID: scope.ClassID, SubjectID: subject.ID, TermID: scope.TermID})
	if err != nil {
		return ObjectiveSet{}, nil, sourceError("thresholds for "+subject.ID, err)
	}
	return set, stored, nil
}

// GetSubjectResults builds the pivot of one subject for the configured scope.
func GetSubjectResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.SubjectResult, error) {
	if cfg.Scope.SubjectID == "" {
		return schema.SubjectResult{}, fmt.Errorf("%w: subject is required", ErrEmptyScope)
	}
	input, err := LoadScope(ctx, cfg, mgr)
	if err != nil {
		return schema.SubjectResult{}, err
	}
	state := Recompute(input, cfg)
	sub, _ := state.Subject(cfg.Scope.SubjectID)
	return subjectResult(state, sub, cfg), nil
}

// subjectResult projects one subject of a recomputed state with the configured sort.
func subjectResult(state AggregationState, sub SubjectState, cfg *contract.Config) schema.SubjectResult {
	sortState := Unsorted.ClickN(cfg.SortKey, cfg.SortClicks)
	rows := Project(NewProjector(cfg.Locale), sub.Rows, sortState, SubjectSortValue)

	return schema.SubjectResult{
		Class:         state.Class,
		Subject:       sub.Subject,
		Term:          state.Term,
		Phase:         sub.Objectives.Phase,
		Manual:        sub.Objectives.Manual,
		Columns:       sub.Columns,
		Thresholds:    sub.Thresholds,
		Rows:          rows,
		SortKey:       sortState.Key,
		SortDirection: sortState.Direction,
	}
}

// GetClassResults builds the cross-subject summary of the configured class and term.
func GetClassResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.ClassResult, error) {
	classCfg := cfg.CloneWithScope(schema.Scope{ClassID: cfg.Scope.ClassID, TermID: cfg.Scope.TermID})
	input, err := LoadScope(ctx, classCfg, mgr)
	if err != nil {
		return schema.ClassResult{}, err
	}
	return classResult(Recompute(input, classCfg), cfg), nil
}

// classResult projects the student summaries of a recomputed state with the configured sort.
func classResult(state AggregationState, cfg *contract.Config) schema.ClassResult {
	sortState := Unsorted.ClickN(cfg.SortKey, cfg.SortClicks)
	rows := Project(NewProjector(cfg.Locale), state.Students, sortState, StudentSortValue)

	subjects := make([]schema.Subject, len(state.Subjects))
	for i, s := range state.Subjects {
		subjects[i] = s.Subject
	}

	result := schema.ClassResult{
		Class:         state.Class,
		Term:          state.Term,
		Subjects:      subjects,
		Rows:          rows,
		Ranks:         algo.RankStudents(state.Students),
		SortKey:       sortState.Key,
		SortDirection: sortState.Direction,
		Unavailable:   state.Unavailable,
	}
	if v, ok := state.ClassThresholds[schema.FinalKey]; ok {
		result.FinalThreshold = &v
	}
	return result
}

// GetDistributionResults classifies the overall averages of the configured class and term.
// Students without any grade are excluded rather than counted as zero.
func GetDistributionResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.DistributionResult, error) {
	classCfg := cfg.CloneWithScope(schema.Scope{ClassID: cfg.Scope.ClassID, TermID: cfg.Scope.TermID})
	input, err := LoadScope(ctx, classCfg, mgr)
	if err != nil {
		return schema.DistributionResult{}, err
	}
	state := Recompute(input, classCfg)

	graded := 0
	for _, b := range state.Distribution {
		graded += b.Count
	}
	return schema.DistributionResult{
		Class:    state.Class,
		Term:     state.Term,
		Graded:   graded,
		Excluded: len(state.Students) - graded,
		Buckets:  state.Distribution,

		Unavailable: state.Unavailable,
	}, nil
}

// GetTrendResults aggregates the multi-period series selected by the configuration.
func GetTrendResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.TrendResult, error) {
	filter := schema.TrendFilter{
		Grouping:  cfg.TrendGrouping,
		StudentID: cfg.StudentID,
		ClassID:   cfg.Scope.ClassID,
		Cohort:    cfg.Cohort,
		SubjectID: cfg.Scope.SubjectID,
	}
	switch {
	case filter.Grouping == schema.TrendByStudent && filter.StudentID == "":
		return schema.TrendResult{}, fmt.Errorf("%w: student is required", ErrEmptyScope)
	case filter.Grouping == schema.TrendByClass && filter.ClassID == "":
		return schema.TrendResult{}, fmt.Errorf("%w: class is required", ErrEmptyScope)
	case filter.Grouping == schema.TrendByCohort && filter.Cohort == "":
		return schema.TrendResult{}, fmt.Errorf("%w: cohort is required", ErrEmptyScope)
	}

	records, err := mgr.GetGradeStore().ListTrendRecords(ctx, filter)
	if err != nil {
		return schema.TrendResult{}, sourceError("trend records", err)
	}

	points := AggregateTrend(records)
	result := schema.TrendResult{
		Filter: filter,
		Series: TrendSeries(points),
		Points: points,
	}
	seen := make(map[string]bool)
	for _, p := range points {
		if !ValidYearLabel(p.YearLabel) && !seen[p.YearLabel] {
			seen[p.YearLabel] = true
			result.NonCanonicalYears = append(result.NonCanonicalYears, p.YearLabel)
		}
	}
	return result, nil
}

// GetObjectiveResults resolves the objective columns of the configured subject scope
// together with the thresholds in effect for them.
func GetObjectiveResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.ObjectiveResult, error) {
	if cfg.Scope.SubjectID == "" {
		return schema.ObjectiveResult{}, fmt.Errorf("%w: subject is required", ErrEmptyScope)
	}
	input, err := LoadScope(ctx, cfg, mgr)
	if err != nil {
		return schema.ObjectiveResult{}, err
	}
	state := Recompute(input, cfg)
	sub, _ := state.Subject(cfg.Scope.SubjectID)

	return schema.ObjectiveResult{
		Class:      state.Class,
		Subject:    sub.Subject,
		Term:       state.Term,
		Phase:      sub.Objectives.Phase,
		Parity:     sub.Objectives.Parity,
		Manual:     sub.Objectives.Manual,
		Objectives: sub.Objectives.Objectives,
		Thresholds: sub.Thresholds,
	}, nil
}

// UpdateThresholds merges values into the stored thresholds of the configured scope.
// A nil value switches the column off. An empty subject targets the class-wide FINAL policy.
func UpdateThresholds(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, values map[schema.ColumnKey]*float64) error {
	scope := cfg.Scope
	if scope.ClassID == "" || scope.TermID == "" {
		return fmt.Errorf("%w: class and term are required", ErrEmptyScope)
	}
	for key, v := range values {
		if v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("threshold for %s must be between 0 and 100", key)
		}
	}
	store := mgr.GetGradeStore()
	current, err := store.LoadThresholds(ctx, scope)
	if err != nil {
		return sourceError("thresholds", err)
	}
	merged := make(map[schema.ColumnKey]*float64, len(current)+len(values))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	if err := store.SaveThresholds(ctx, scope, merged); err != nil {
		return sourceError("thresholds", err)
	}
	return nil
}

// SaveGrades writes a batch of independent grade upserts. The batch is
// logged, but never rolled back: failures only show up in the counts.
func SaveGrades(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, ops []schema.ScoreWrite) schema.BulkResult {
	store := mgr.GetGradeStore()
	batchID := newBatchID()

	if err := store.BeginBatch(ctx, batchID, time.Now()); err != nil {
		contract.LogWarn("Batch log initialization failed", err)
	}

	coordinator := NewBulkWriteCoordinator(store, cfg.Workers)
	result := coordinator.Save(withBatchID(ctx, batchID), ops)
	result.BatchID = batchID

	if err := store.EndBatch(context.WithoutCancel(ctx), batchID, time.Now(), result); err != nil {
		contract.LogWarn("Failed to finalize batch log", err)
	}
	return result
}

// sourceError keeps not-found errors distinguishable and marks everything else as unavailable.
func sourceError(what string, err error) error {
	if errors.Is(err, contract.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, what, err)
}

// ExecuteSeed loads a dataset file from cfg.InputFile into the store.
func ExecuteSeed(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	data, err := ReadDatasetFile(cfg.InputFile)
	if err != nil {
		return err
	}
	if err := mgr.GetGradeStore().Seed(ctx, data); err != nil {
		return sourceError("seed", err)
	}
	fmt.Printf("Seeded %d classes, %d subjects, %d terms, %d students, %d objectives and %d scores.\n",
		len(data.Classes), len(data.Subjects), len(data.Terms), len(data.Students), len(data.Objectives), len(data.Scores))
	return nil
}
