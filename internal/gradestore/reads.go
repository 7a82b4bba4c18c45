package gradestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// ListScopeRecords returns the score rows of a class and term, optionally for one subject.
func (gs *GradeStoreImpl) ListScopeRecords(ctx context.Context, scope schema.Scope) ([]schema.AssessmentRecord, error) {
	if gs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT s.student_id, COALESCE(st.name, s.student_id), s.subject_id, COALESCE(sb.name, s.subject_id),
		       s.class_id, s.term_id, s.kind, s.ordinal, s.value
		FROM %s s
		LEFT JOIN %s st ON st.id = s.student_id
		LEFT JOIN %s sb ON sb.id = s.subject_id
		WHERE s.class_id = ? AND s.term_id = ?`,
		gs.table(scoresTable), gs.table(studentsTable), gs.table(subjectsTable))
	args := []any{scope.ClassID, scope.TermID}
	if scope.SubjectID != "" {
		query += " AND s.subject_id = ?"
		args = append(args, scope.SubjectID)
	}
	query += " ORDER BY s.student_id, s.subject_id, s.kind, s.ordinal"

	rows, err := gs.db.QueryContext(ctx, gs.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.AssessmentRecord
	for rows.Next() {
		var rec schema.AssessmentRecord
		var kind string
		var value sql.NullFloat64
		if err := rows.Scan(&rec.StudentID, &rec.StudentName, &rec.SubjectID, &rec.SubjectName,
			&rec.ClassID, &rec.TermID, &kind, &rec.Ordinal, &value); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		rec.Kind = schema.AssessmentKind(kind)
		if value.Valid {
			rec.Value = &value.Float64
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return out, nil
}

// ListTrendRecords returns graded values joined with their term year and name.
// The series is the subject name, or the class name for cohort trends.
func (gs *GradeStoreImpl) ListTrendRecords(ctx context.Context, filter schema.TrendFilter) ([]schema.TrendRecord, error) {
	if gs.disabled() {
		return nil, nil
	}

	series := "COALESCE(sb.name, s.subject_id)"
	var where []string
	var args []any
	switch filter.Grouping {
	case schema.TrendByStudent:
		where = append(where, "s.student_id = ?")
		args = append(args, filter.StudentID)
	case schema.TrendByCohort:
		series = "COALESCE(c.name, s.class_id)"
		where = append(where, "st.cohort = ?")
		args = append(args, filter.Cohort)
	default:
		where = append(where, "s.class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		where = append(where, "s.subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	where = append(where, "s.value IS NOT NULL")

	query := fmt.Sprintf(`
		SELECT %s, t.year_label, t.name, t.half, s.value
		FROM %s s
		JOIN %s t ON t.id = s.term_id
		LEFT JOIN %s st ON st.id = s.student_id
		LEFT JOIN %s sb ON sb.id = s.subject_id
		LEFT JOIN %s c ON c.id = s.class_id
		WHERE %s
		ORDER BY t.year_label, t.half`,
		series, gs.table(scoresTable), gs.table(termsTable), gs.table(studentsTable),
		gs.table(subjectsTable), gs.table(classesTable), strings.Join(where, " AND "))

	rows, err := gs.db.QueryContext(ctx, gs.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.TrendRecord
	for rows.Next() {
		var rec schema.TrendRecord
		var value float64
		if err := rows.Scan(&rec.Series, &rec.YearLabel, &rec.TermName, &rec.TermHalf, &value); err != nil {
			return nil, fmt.Errorf("failed to scan trend record: %w", err)
		}
		rec.Value = &value
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend records: %w", err)
	}
	return out, nil
}

// ListRoster returns the students of a class ordered by name.
func (gs *GradeStoreImpl) ListRoster(ctx context.Context, classID string) ([]schema.Student, error) {
	if gs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id, name, class_id, cohort FROM %s WHERE class_id = ? ORDER BY name, id`, gs.table(studentsTable))
	rows, err := gs.db.QueryContext(ctx, gs.q(query), classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Student
	for rows.Next() {
		var st schema.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.ClassID, &st.Cohort); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster: %w", err)
	}
	return out, nil
}

// GetClass returns a class by id, or contract.ErrNotFound.
func (gs *GradeStoreImpl) GetClass(ctx context.Context, id string) (schema.Class, error) {
	if gs.disabled() {
		return schema.Class{ID: id, Name: id}, nil
	}
	var c schema.Class
	query := fmt.Sprintf(`SELECT id, name, grade_level FROM %s WHERE id = ?`, gs.table(classesTable))
	err := gs.db.QueryRowContext(ctx, gs.q(query), id).Scan(&c.ID, &c.Name, &c.GradeLevel)
	return c, notFound(err, "class", id)
}

// GetTerm returns a term by id, or contract.ErrNotFound.
func (gs *GradeStoreImpl) GetTerm(ctx context.Context, id string) (schema.Term, error) {
	if gs.disabled() {
		return schema.Term{ID: id, Name: id}, nil
	}
	var t schema.Term
	query := fmt.Sprintf(`SELECT id, name, year_label, half FROM %s WHERE id = ?`, gs.table(termsTable))
	err := gs.db.QueryRowContext(ctx, gs.q(query), id).Scan(&t.ID, &t.Name, &t.YearLabel, &t.Half)
	return t, notFound(err, "term", id)
}

// GetSubject returns a subject by id, or contract.ErrNotFound.
func (gs *GradeStoreImpl) GetSubject(ctx context.Context, id string) (schema.Subject, error) {
	if gs.disabled() {
		return schema.Subject{ID: id, Name: id}, nil
	}
	var s schema.Subject
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = ?`, gs.table(subjectsTable))
	err := gs.db.QueryRowContext(ctx, gs.q(query), id).Scan(&s.ID, &s.Name)
	return s, notFound(err, "subject", id)
}

// ListObjectives returns the objectives of a subject and phase that apply to
// the given term parity or to any half, ordered by ordinal. Parity 0 matches all.
func (gs *GradeStoreImpl) ListObjectives(ctx context.Context, subjectID string, phase schema.Phase, parity int) ([]schema.LearningObjective, error) {
	if gs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT subject_id, phase, term_parity, ordinal, COALESCE(description, ''), COALESCE(kktp, '')
		FROM %s
		WHERE subject_id = ? AND phase = ? AND (? = 0 OR term_parity = 0 OR term_parity = ?)
		ORDER BY ordinal, term_parity`, gs.table(objectivesTable))

	rows, err := gs.db.QueryContext(ctx, gs.q(query), subjectID, string(phase), parity, parity)
	if err != nil {
		return nil, fmt.Errorf("failed to query objectives: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.LearningObjective
	for rows.Next() {
		var obj schema.LearningObjective
		var p string
		if err := rows.Scan(&obj.SubjectID, &p, &obj.TermParity, &obj.Ordinal, &obj.Description, &obj.RawThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan objective: %w", err)
		}
		obj.Phase = schema.Phase(p)
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating objectives: %w", err)
	}
	return out, nil
}

// LoadThresholds returns the stored thresholds of a scope. A nil value means
// the column was explicitly switched off.
func (gs *GradeStoreImpl) LoadThresholds(ctx context.Context, scope schema.Scope) (map[schema.ColumnKey]*float64, error) {
	if gs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT column_key, value FROM %s WHERE class_id = ? AND subject_id = ? AND term_id = ?`, gs.table(thresholdsTable))
	rows, err := gs.db.QueryContext(ctx, gs.q(query), scope.ClassID, scope.SubjectID, scope.TermID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[schema.ColumnKey]*float64)
	for rows.Next() {
		var key string
		var value sql.NullFloat64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan threshold: %w", err)
		}
		if value.Valid {
			v := value.Float64
			out[schema.ColumnKey(key)] = &v
		} else {
			out[schema.ColumnKey(key)] = nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thresholds: %w", err)
	}
	return out, nil
}

// notFound maps sql.ErrNoRows to contract.ErrNotFound.
func notFound(err error, what, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, contract.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %q: %w", what, id, err)
}
