package core

import (
	"github.com/raporkit/rapor/core/agg"
	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// ScopeInput is everything the read side loads for one selection of class and term.
// When the selection names a subject, Subjects holds only that subject.
type ScopeInput struct {
	Class      schema.Class
	Term       schema.Term
	Subjects   []schema.Subject
	Roster     []schema.Student
	Records    []schema.AssessmentRecord
	Objectives map[string]ObjectiveSet // by subject id

	// Stored thresholds per subject id, and for the class-wide scope.
	SubjectThresholds map[string]map[schema.ColumnKey]*float64
	ClassThresholds   map[schema.ColumnKey]*float64

	// Subjects whose objectives or thresholds could not be loaded in a class-wide scope.
	Unavailable []schema.SubjectIssue
}

// SubjectState is the derived state of one subject in the scope.
type SubjectState struct {
	Subject    schema.Subject
	Objectives ObjectiveSet
	Columns    []schema.ColumnKey
	Thresholds schema.ThresholdSet
	Rows       []schema.SubjectSummary
}

// AggregationState is the complete derived state of a scope. It is rebuilt
// from scratch on every selection change and never updated in place.
type AggregationState struct {
	Class           schema.Class
	Term            schema.Term
	Subjects        []SubjectState
	Students        []schema.StudentSummary
	ClassThresholds schema.ThresholdSet
	Distribution    []schema.DistributionBucket
	Unavailable     []schema.SubjectIssue
}

// Subject returns the state of a subject by id.
func (s AggregationState) Subject(id string) (SubjectState, bool) {
	for _, sub := range s.Subjects {
		if sub.Subject.ID == id {
			return sub, true
		}
	}
	return SubjectState{}, false
}

// Recompute derives the aggregation state from loaded input and configuration.
// It has no side effects and does not retain input.
func Recompute(input ScopeInput, cfg *contract.Config) AggregationState {
	weights := cfg.Weights
	if weights == (schema.GradeWeights{}) {
		weights = schema.DefaultGradeWeights()
	}

	state := AggregationState{
		Class:       input.Class,
		Term:        input.Term,
		Unavailable: input.Unavailable,
		ClassThresholds: applyOverrides(
			MergeThresholds(DefaultThresholds(nil), input.ClassThresholds),
			cfg.ThresholdOverrides,
		),
	}

	for _, subject := range input.Subjects {
		state.Subjects = append(state.Subjects, recomputeSubject(subject, input, cfg, weights))
	}

	state.Students = summarizeStudents(input.Roster, state.Subjects, state.ClassThresholds, weights)
	state.Distribution = ClassifyDistribution(StudentAverages(state.Students))
	return state
}

func recomputeSubject(subject schema.Subject, input ScopeInput, cfg *contract.Config, weights schema.GradeWeights) SubjectState {
	var records []schema.AssessmentRecord
	for _, rec := range input.Records {
		if rec.SubjectID == subject.ID {
			records = append(records, rec)
		}
	}

	objectives, ok := input.Objectives[subject.ID]
	if !ok {
		objectives = ObjectiveSet{SubjectID: subject.ID, Manual: true, Objectives: manualObjectives(1)}
	}
	objectives = objectives.ExtendManual(agg.MaxTPOrdinal(records))
	columns := objectives.Columns()

	thresholds := applyOverrides(
		MergeThresholds(objectives.SeedThresholds(), input.SubjectThresholds[subject.ID]),
		cfg.ThresholdOverrides,
	)

	rows := agg.PivotSubject(subject, records, columns, input.Roster)
	for i := range rows {
		rows[i].FinalGrade = SubjectFinalGrade(rows[i], weights)
		flagRow(&rows[i], thresholds)
	}

	return SubjectState{
		Subject:    subject,
		Objectives: objectives,
		Columns:    columns,
		Thresholds: thresholds,
		Rows:       rows,
	}
}

// summarizeStudents folds subject rows into one cross-subject row per student.
func summarizeStudents(roster []schema.Student, subjects []SubjectState, thresholds schema.ThresholdSet, weights schema.GradeWeights) []schema.StudentSummary {
	byStudent := make(map[string]*schema.StudentSummary)
	rowsOf := make(map[string][]schema.SubjectSummary)
	var order []string

	ensure := func(id, name string) *schema.StudentSummary {
		if s, ok := byStudent[id]; ok {
			return s
		}
		s := &schema.StudentSummary{
			StudentID:         id,
			StudentName:       name,
			PerSubjectAverage: make(map[string]*float64, len(subjects)),
		}
		for _, sub := range subjects {
			s.PerSubjectAverage[sub.Subject.ID] = nil
		}
		byStudent[id] = s
		order = append(order, id)
		return s
	}

	for _, st := range roster {
		ensure(st.ID, st.Name)
	}
	for _, sub := range subjects {
		for _, row := range sub.Rows {
			s := ensure(row.StudentID, row.StudentName)
			s.PerSubjectAverage[sub.Subject.ID] = row.Average
			rowsOf[row.StudentID] = append(rowsOf[row.StudentID], row)
		}
	}

	out := make([]schema.StudentSummary, 0, len(order))
	for _, id := range order {
		s := byStudent[id]
		averages := make([]*float64, 0, len(s.PerSubjectAverage))
		for _, sub := range subjects {
			averages = append(averages, s.PerSubjectAverage[sub.Subject.ID])
		}
		s.OverallAverage = algo.RoundedMean(averages)
		if s.OverallAverage != nil {
			s.Band = BandOf(*s.OverallAverage)
		}
		s.FinalGrade = StudentFinalGrade(rowsOf[id], weights)
		s.FinalBelow = IsBelow(schema.FinalKey, s.FinalGrade, thresholds)
		out = append(out, *s)
	}
	agg.SortByName(out, func(s schema.StudentSummary) (string, string) { return s.StudentName, s.StudentID })
	return out
}

// applyOverrides layers configuration overrides on top of a threshold set.
func applyOverrides(ts schema.ThresholdSet, overrides map[schema.ColumnKey]*float64) schema.ThresholdSet {
	if len(overrides) == 0 {
		return ts
	}
	return MergeThresholds(ts, overrides)
}
