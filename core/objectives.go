package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// Errors returned when editing the objective column set.
var (
	ErrFirstColumn   = errors.New("objective column 1 cannot be removed")
	ErrNotLastColumn = errors.New("only the last objective column can be removed")
)

// PhaseForGrade maps a class grade level to its curriculum phase.
func PhaseForGrade(level int) (schema.Phase, bool) {
	switch level {
	case 1, 2:
		return schema.PhaseA, true
	case 3, 4:
		return schema.PhaseB, true
	case 5, 6:
		return schema.PhaseC, true
	default:
		return "", false
	}
}

// TermParity derives the half of the year from a term name such as
// "Ganjil", "Semester 2" or "Second Half". It returns false when unknown.
func TermParity(name string) (int, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		switch tok {
		case "ganjil", "gasal", "odd", "first", "1", "i":
			return schema.FirstParity, true
		case "genap", "even", "second", "2", "ii":
			return schema.SecondParity, true
		}
	}
	return schema.AnyParity, false
}

// ParseKKTP reads a curriculum threshold hint. Unparseable, empty or
// out-of-range text yields DefaultThreshold.
func ParseKKTP(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return schema.DefaultThreshold
	}
	return v
}

// ObjectiveSet is the resolved, binding column set of one subject scope.
type ObjectiveSet struct {
	SubjectID  string                     `json:"subject_id"`
	Phase      schema.Phase               `json:"phase"`
	Parity     int                        `json:"term_parity"`
	Manual     bool                       `json:"manual"`
	Objectives []schema.LearningObjective `json:"objectives"`
}

// Columns returns TP1..TPn followed by UAS.
func (o ObjectiveSet) Columns() []schema.ColumnKey {
	cols := NewObjectiveColumns(len(o.Objectives)).Keys()
	return append(cols, schema.UASKey)
}

// SeedThresholds returns the default thresholds with each TP column replaced
// by its objective's suggested threshold.
func (o ObjectiveSet) SeedThresholds() schema.ThresholdSet {
	ts := DefaultThresholds(o.Columns())
	for _, obj := range o.Objectives {
		if obj.SuggestedThreshold != nil {
			ts[schema.TPKey(obj.Ordinal)] = *obj.SuggestedThreshold
		}
	}
	return ts
}

// ExtendManual grows a manual fallback set so that every observed TP ordinal
// has a column. Curriculum-backed sets are returned unchanged.
func (o ObjectiveSet) ExtendManual(highestOrdinal int) ObjectiveSet {
	if !o.Manual {
		return o
	}
	cols := NewObjectiveColumns(len(o.Objectives))
	for cols.Count() < highestOrdinal {
		cols.Add()
	}
	out := o
	out.Objectives = manualObjectives(cols.Count())
	return out
}

// ResolveObjectives looks up the curriculum objectives for a subject in a class and term.
// When the store has none, a single manual objective is returned.
func ResolveObjectives(ctx context.Context, src contract.CurriculumSource, subjectID string, class schema.Class, term schema.Term) (ObjectiveSet, error) {
	set := ObjectiveSet{SubjectID: subjectID}

	parity := term.Half
	if parity == schema.AnyParity {
		parity, _ = TermParity(term.Name)
	}
	set.Parity = parity

	phase, ok := PhaseForGrade(class.GradeLevel)
	if !ok {
		set.Manual = true
		set.Objectives = manualObjectives(1)
		return set, nil
	}
	set.Phase = phase

	found, err := src.ListObjectives(ctx, subjectID, phase, parity)
	if err != nil {
		return set, fmt.Errorf("%w: objectives for %s: %v", ErrSourceUnavailable, subjectID, err)
	}
	if len(found) == 0 {
		set.Manual = true
		set.Objectives = manualObjectives(1)
		return set, nil
	}

	set.Objectives = make([]schema.LearningObjective, len(found))
	for i, obj := range found {
		obj.Ordinal = i + 1
		kktp := ParseKKTP(obj.RawThreshold)
		obj.SuggestedThreshold = &kktp
		set.Objectives[i] = obj
	}
	return set, nil
}

func manualObjectives(n int) []schema.LearningObjective {
	out := make([]schema.LearningObjective, n)
	for i := range out {
		out[i] = schema.LearningObjective{Ordinal: i + 1}
	}
	return out
}

// ObjectiveColumns is an append-only list of TP columns. Column 1 always exists.
type ObjectiveColumns struct {
	count int
}

// NewObjectiveColumns returns n columns, or one column when n < 1.
func NewObjectiveColumns(n int) ObjectiveColumns {
	return ObjectiveColumns{count: max(n, 1)}
}

// Count returns the number of TP columns.
func (c ObjectiveColumns) Count() int {
	return max(c.count, 1)
}

// Add appends the next ordinal and returns its key.
func (c *ObjectiveColumns) Add() schema.ColumnKey {
	c.count = c.Count() + 1
	return schema.TPKey(c.count)
}

// Remove drops the column with the given ordinal. Only the last column can go,
// and never column 1.
func (c *ObjectiveColumns) Remove(ordinal int) error {
	if ordinal <= 1 {
		return ErrFirstColumn
	}
	if ordinal != c.Count() {
		return ErrNotLastColumn
	}
	c.count--
	return nil
}

// Keys returns TP1..TPn.
func (c ObjectiveColumns) Keys() []schema.ColumnKey {
	keys := make([]schema.ColumnKey, c.Count())
	for i := range keys {
		keys[i] = schema.TPKey(i + 1)
	}
	return keys
}
