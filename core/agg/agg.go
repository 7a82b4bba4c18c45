// Package agg has aggregation logic for raw assessment records.
package agg

import (
	"sort"
	"strings"

	"github.com/raporkit/rapor/core/algo"
	"github.com/raporkit/rapor/schema"
)

// PivotSubject groups the records of one subject into one row per student.
//
// Every roster student gets a row even without records. Records for columns
// outside the given column set are dropped, and a repeated (student, column)
// pair keeps the last value seen. Rows are sorted by student name.
func PivotSubject(subject schema.Subject, records []schema.AssessmentRecord, columns []schema.ColumnKey, roster []schema.Student) []schema.SubjectSummary {
	allowed := make(map[schema.ColumnKey]bool, len(columns))
	for _, c := range columns {
		allowed[c] = true
	}

	rows := make(map[string]*schema.SubjectSummary, len(roster))
	order := make([]string, 0, len(roster))
	ensure := func(id, name string) *schema.SubjectSummary {
		if row, ok := rows[id]; ok {
			if row.StudentName == "" {
				row.StudentName = name
			}
			return row
		}
		row := &schema.SubjectSummary{
			StudentID:   id,
			StudentName: name,
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Values:      emptyValues(columns),
		}
		rows[id] = row
		order = append(order, id)
		return row
	}

	for _, st := range roster {
		ensure(st.ID, st.Name)
	}

	for _, rec := range records {
		if subject.ID != "" && rec.SubjectID != subject.ID {
			continue
		}
		key, ok := rec.Column()
		if !ok || !allowed[key] {
			continue
		}
		row := ensure(rec.StudentID, rec.StudentName)
		if row.SubjectName == "" {
			row.SubjectName = rec.SubjectName
		}
		row.Values[key] = copyValue(rec.Value)
	}

	out := make([]schema.SubjectSummary, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.TPAverage = algo.RoundedMean(tpValues(row.Values, columns))
		row.Average = algo.RoundedMean(columnValues(row.Values, columns))
		out = append(out, *row)
	}
	SortByName(out, func(r schema.SubjectSummary) (string, string) { return r.StudentName, r.StudentID })
	return out
}

// SubjectsOf returns the distinct subjects named by the records, sorted by name.
func SubjectsOf(records []schema.AssessmentRecord) []schema.Subject {
	seen := make(map[string]int)
	var subjects []schema.Subject
	for _, rec := range records {
		if i, ok := seen[rec.SubjectID]; ok {
			if subjects[i].Name == "" {
				subjects[i].Name = rec.SubjectName
			}
			continue
		}
		seen[rec.SubjectID] = len(subjects)
		subjects = append(subjects, schema.Subject{ID: rec.SubjectID, Name: rec.SubjectName})
	}
	SortByName(subjects, func(s schema.Subject) (string, string) { return s.Name, s.ID })
	return subjects
}

// MaxTPOrdinal returns the highest TP ordinal among the records, or 0.
func MaxTPOrdinal(records []schema.AssessmentRecord) int {
	highest := 0
	for _, rec := range records {
		if rec.Kind == schema.KindTP && rec.Ordinal > highest {
			highest = rec.Ordinal
		}
	}
	return highest
}

// SortByName sorts items case-insensitively by name, falling back to the id.
func SortByName[T any](items []T, key func(T) (name, id string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ni, ii := key(items[i])
		nj, ij := key(items[j])
		if c := strings.Compare(strings.ToLower(ni), strings.ToLower(nj)); c != 0 {
			return c < 0
		}
		return ii < ij
	})
}

// emptyValues creates a value map with every column present and unset.
func emptyValues(columns []schema.ColumnKey) map[schema.ColumnKey]*float64 {
	values := make(map[schema.ColumnKey]*float64, len(columns))
	for _, c := range columns {
		values[c] = nil
	}
	return values
}

func tpValues(values map[schema.ColumnKey]*float64, columns []schema.ColumnKey) []*float64 {
	out := make([]*float64, 0, len(columns))
	for _, c := range columns {
		if _, ok := schema.TPOrdinal(c); ok {
			out = append(out, values[c])
		}
	}
	return out
}

func columnValues(values map[schema.ColumnKey]*float64, columns []schema.ColumnKey) []*float64 {
	out := make([]*float64, 0, len(columns))
	for _, c := range columns {
		out = append(out, values[c])
	}
	return out
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
