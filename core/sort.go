package core

import (
	"sort"

	"github.com/raporkit/rapor/schema"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortState is the tri-state sort of a summary table.
type SortState struct {
	Key       string               `json:"key,omitempty"`
	Direction schema.SortDirection `json:"direction"`
}

// Unsorted is the initial sort state.
var Unsorted = SortState{Direction: schema.SortNone}

// Click returns the state after a header click on key. Repeated clicks on the
// same column cycle ascending, descending, none.
func (s SortState) Click(key string) SortState {
	if s.Key != key || s.Direction == schema.SortNone {
		return SortState{Key: key, Direction: schema.SortAscending}
	}
	if s.Direction == schema.SortAscending {
		return SortState{Key: key, Direction: schema.SortDescending}
	}
	return Unsorted
}

// ClickN applies n consecutive clicks on key.
func (s SortState) ClickN(key string, n int) SortState {
	for range n {
		s = s.Click(key)
	}
	return s
}

// SortValue is a cell as seen by the comparator. Text cells compare by
// locale collation; numeric cells treat nil as the minimum.
type SortValue struct {
	Text   string
	Num    *float64
	IsText bool
}

// TextValue wraps a string cell.
func TextValue(s string) SortValue { return SortValue{Text: s, IsText: true} }

// NumValue wraps a nullable numeric cell.
func NumValue(v *float64) SortValue { return SortValue{Num: v} }

// Projector applies a SortState to rows. Its collator is not safe for concurrent use.
type Projector struct {
	collator *collate.Collator
}

// NewProjector builds a projector for the given BCP 47 locale. Unknown tags fall back to the root locale.
func NewProjector(locale string) *Projector {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Projector{collator: collate.New(tag, collate.IgnoreCase)}
}

// Project returns a sorted copy of rows. With direction none the input order is kept.
func Project[T any](p *Projector, rows []T, state SortState, value func(row T, key string) SortValue) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	if state.Direction == schema.SortNone || state.Key == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := p.compare(value(out[i], state.Key), value(out[j], state.Key))
		if state.Direction == schema.SortDescending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compare orders two cells, returning -1, 0 or 1.
func (p *Projector) compare(a, b SortValue) int {
	if a.IsText || b.IsText {
		return p.collator.CompareString(a.Text, b.Text)
	}
	switch {
	case a.Num == nil && b.Num == nil:
		return 0
	case a.Num == nil:
		return -1
	case b.Num == nil:
		return 1
	case *a.Num < *b.Num:
		return -1
	case *a.Num > *b.Num:
		return 1
	default:
		return 0
	}
}

// StudentSortValue exposes the sortable columns of a class summary row:
// "name", "average", "final", or a subject id.
func StudentSortValue(row schema.StudentSummary, key string) SortValue {
	switch key {
	case "name":
		return TextValue(row.StudentName)
	case "average":
		return NumValue(row.OverallAverage)
	case "final":
		return NumValue(row.FinalGrade)
	default:
		return NumValue(row.PerSubjectAverage[key])
	}
}

// SubjectSortValue exposes the sortable columns of a subject row:
// "name", "average", "tp_average", "final", or a column key such as TP1 or UAS.
func SubjectSortValue(row schema.SubjectSummary, key string) SortValue {
	switch key {
	case "name":
		return TextValue(row.StudentName)
	case "average":
		return NumValue(row.Average)
	case "tp_average":
		return NumValue(row.TPAverage)
	case "final":
		return NumValue(row.FinalGrade)
	default:
		if col, err := schema.ParseColumnKey(key); err == nil {
			return NumValue(row.Values[col])
		}
		return NumValue(nil)
	}
}
