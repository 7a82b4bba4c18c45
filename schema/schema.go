// Package schema has models, constants and helpers shared by all parts of rapor.
package schema

import (
	"maps"
	"time"
)

// Scope is the selection key that triggers a refresh: one class, one subject, one term.
// SubjectID is empty for the class-wide (all subjects) view.
type Scope struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id,omitempty"`
	TermID    string `json:"term_id"`
}

// AssessmentRecord is a single raw score row from the record source.
type AssessmentRecord struct {
	StudentID   string         `json:"student_id"`
	StudentName string         `json:"student_name"`
	SubjectID   string         `json:"subject_id"`
	SubjectName string         `json:"subject_name"`
	ClassID     string         `json:"class_id,omitempty"`
	TermID      string         `json:"term_id"`
	Kind        AssessmentKind `json:"kind"`
	Ordinal     int            `json:"ordinal,omitempty"` // 1-based for TP, 0 for UAS
	Value       *float64       `json:"value"`             // nil when not graded yet
}

// Column returns the column key this record fills, or false when the record
// cannot be placed (unknown kind or a TP without an ordinal).
func (r AssessmentRecord) Column() (ColumnKey, bool) {
	switch r.Kind {
	case KindUAS:
		return UASKey, true
	case KindTP:
		if r.Ordinal < 1 {
			return "", false
		}
		return TPKey(r.Ordinal), true
	default:
		return "", false
	}
}

// LearningObjective is a curriculum descriptor that becomes one TP column.
type LearningObjective struct {
	SubjectID          string   `json:"subject_id,omitempty"`
	Phase              Phase    `json:"phase,omitempty"`
	TermParity         int      `json:"term_parity,omitempty"` // 0 means any half
	Ordinal            int      `json:"ordinal"`
	Description        string   `json:"description"`
	SuggestedThreshold *float64 `json:"suggested_threshold"`
	RawThreshold       string   `json:"kktp,omitempty"` // KKTP text as stored
}

// ThresholdSet maps a column key to its pass threshold. A missing key means no policy.
type ThresholdSet map[ColumnKey]float64

// Clone returns a copy of the set.
func (ts ThresholdSet) Clone() ThresholdSet {
	out := make(ThresholdSet, len(ts))
	maps.Copy(out, ts)
	return out
}

// SubjectSummary is the pivoted row for one student in one subject.
type SubjectSummary struct {
	StudentID   string                 `json:"student_id"`
	StudentName string                 `json:"student_name"`
	SubjectID   string                 `json:"subject_id"`
	SubjectName string                 `json:"subject_name"`
	Values      map[ColumnKey]*float64 `json:"values"`
	TPAverage   *float64               `json:"tp_average"`
	Average     *float64               `json:"average"`
	FinalGrade  *float64               `json:"final_grade"`
	Below       map[ColumnKey]bool     `json:"below,omitempty"`
}

// StudentSummary is the cross-subject row for one student.
type StudentSummary struct {
	StudentID         string              `json:"student_id"`
	StudentName       string              `json:"student_name"`
	OverallAverage    *float64            `json:"overall_average"`
	PerSubjectAverage map[string]*float64 `json:"per_subject_average"`
	FinalGrade        *float64            `json:"final_grade"`
	FinalBelow        bool                `json:"final_below"`
	Band              string              `json:"band,omitempty"` // empty without an overall average
}

// DistributionBucket is one letter-grade band of the class histogram.
type DistributionBucket struct {
	Label      string  `json:"label"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendRecord is one raw value in a multi-period query.
type TrendRecord struct {
	Series    string   `json:"series"`
	YearLabel string   `json:"year"`
	TermName  string   `json:"term"`
	TermHalf  int      `json:"term_half"`
	Value     *float64 `json:"value"`
}

// PeriodPoint is one chronological bucket of a trend chart.
type PeriodPoint struct {
	PeriodKey string             `json:"period"`
	YearLabel string             `json:"year"`
	TermHalf  int                `json:"term_half"`
	Series    map[string]float64 `json:"series"`
}

// TrendFilter selects the records of a trend query.
type TrendFilter struct {
	Grouping  TrendGrouping `json:"grouping"`
	StudentID string        `json:"student_id,omitempty"`
	ClassID   string        `json:"class_id,omitempty"`
	Cohort    string        `json:"cohort,omitempty"`
	SubjectID string        `json:"subject_id,omitempty"`
}

// Student is a roster entry.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ClassID string `json:"class_id"`
	Cohort  string `json:"cohort,omitempty"`
}

// Class is a homeroom with a numeric grade level.
type Class struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level"`
}

// Subject is a taught subject.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Term is an academic half-year.
type Term struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	YearLabel string `json:"year"`
	Half      int    `json:"half,omitempty"` // 0 when it must be derived from Name
}

// ScoreWrite is one independent upsert of a grade cell.
type ScoreWrite struct {
	StudentID string         `json:"student_id" validate:"required,max=64"`
	SubjectID string         `json:"subject_id" validate:"required,max=64"`
	ClassID   string         `json:"class_id" validate:"required,max=64"`
	TermID    string         `json:"term_id" validate:"required,max=64"`
	Kind      AssessmentKind `json:"kind" validate:"required,oneof=TP UAS"`
	Ordinal   int            `json:"ordinal" validate:"gte=0,required_if=Kind TP,excluded_if=Kind UAS"`
	Value     *float64       `json:"value" validate:"omitempty,gte=0,lte=100"`
}

// BulkResult is the outcome of a best-effort batch of writes.
type BulkResult struct {
	BatchID      string `json:"batch_id,omitempty"`
	SuccessCount int    `json:"success_count"`
	FailCount    int    `json:"fail_count"`
}

// Dataset is a bundle of reference data and scores used to seed a store.
type Dataset struct {
	Classes    []Class             `json:"classes"`
	Subjects   []Subject           `json:"subjects"`
	Terms      []Term              `json:"terms"`
	Students   []Student           `json:"students"`
	Objectives []LearningObjective `json:"objectives"`
	Scores     []ScoreWrite        `json:"scores"`
}

// SaveBatchRecord represents a row from the save batch log.
type SaveBatchRecord struct {
	BatchID      string
	StartedAt    time.Time
	FinishedAt   *time.Time
	SuccessCount int
	FailCount    int
}

// GradeWeights are the final-grade weights of the TP average and the UAS score.
type GradeWeights struct {
	TP  float64 `json:"tp"`
	UAS float64 `json:"uas"`
}

// DefaultGradeWeights returns the 70/30 split between TP average and UAS.
func DefaultGradeWeights() GradeWeights {
	return GradeWeights{TP: 0.7, UAS: 0.3}
}
