package gradestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/raporkit/rapor/schema"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	scoreColumns     = []string{"student_id", "subject_id", "class_id", "term_id", "kind", "ordinal", "value", "updated_at"}
	scoreKeyColumns  = []string{"student_id", "subject_id", "term_id", "kind", "ordinal"}
	thresholdColumns = []string{"class_id", "subject_id", "term_id", "column_key", "value"}
)

// UpsertScore writes one grade cell keyed by (student, subject, term, kind, ordinal).
func (gs *GradeStoreImpl) UpsertScore(ctx context.Context, op schema.ScoreWrite) error {
	if gs.disabled() {
		return nil
	}
	return gs.upsertScore(ctx, gs.db, op)
}

func (gs *GradeStoreImpl) upsertScore(ctx context.Context, ex execer, op schema.ScoreWrite) error {
	ordinal := op.Ordinal
	if op.Kind == schema.KindUAS {
		ordinal = 0
	}
	query := upsertQuery(scoresTable, scoreColumns, scoreKeyColumns, gs.backend)
	_, err := ex.ExecContext(ctx, query,
		op.StudentID, op.SubjectID, op.ClassID, op.TermID, string(op.Kind), ordinal,
		nullableFloat(op.Value), formatTime(time.Now(), gs.backend))
	if err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

// SaveThresholds replaces the stored thresholds of a scope.
func (gs *GradeStoreImpl) SaveThresholds(ctx context.Context, scope schema.Scope, values map[schema.ColumnKey]*float64) error {
	if gs.disabled() {
		return nil
	}

	tx, err := gs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del := fmt.Sprintf(`DELETE FROM %s WHERE class_id = ? AND subject_id = ? AND term_id = ?`, gs.table(thresholdsTable))
	if _, err := tx.ExecContext(ctx, gs.q(del), scope.ClassID, scope.SubjectID, scope.TermID); err != nil {
		return fmt.Errorf("failed to clear thresholds: %w", err)
	}

	insert := gs.q(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)`, gs.table(thresholdsTable), strings.Join(thresholdColumns, ", ")))
	for key, v := range values {
		if _, err := tx.ExecContext(ctx, insert, scope.ClassID, scope.SubjectID, scope.TermID, string(key), nullableFloat(v)); err != nil {
			return fmt.Errorf("failed to save threshold %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Seed inserts or replaces reference data and scores in a single transaction.
func (gs *GradeStoreImpl) Seed(ctx context.Context, data schema.Dataset) error {
	if gs.disabled() {
		return nil
	}

	tx, err := gs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(table string, cols, keys []string, args ...any) error {
		if _, err := tx.ExecContext(ctx, upsertQuery(table, cols, keys, gs.backend), args...); err != nil {
			return fmt.Errorf("failed to seed %s: %w", table, err)
		}
		return nil
	}

	for _, c := range data.Classes {
		if err := exec(classesTable, []string{"id", "name", "grade_level"}, []string{"id"}, c.ID, c.Name, c.GradeLevel); err != nil {
			return err
		}
	}
	for _, s := range data.Subjects {
		if err := exec(subjectsTable, []string{"id", "name"}, []string{"id"}, s.ID, s.Name); err != nil {
			return err
		}
	}
	for _, t := range data.Terms {
		if err := exec(termsTable, []string{"id", "name", "year_label", "half"}, []string{"id"}, t.ID, t.Name, t.YearLabel, t.Half); err != nil {
			return err
		}
	}
	for _, st := range data.Students {
		if err := exec(studentsTable, []string{"id", "name", "class_id", "cohort"}, []string{"id"}, st.ID, st.Name, st.ClassID, st.Cohort); err != nil {
			return err
		}
	}
	for _, o := range data.Objectives {
		if err := exec(objectivesTable,
			[]string{"subject_id", "phase", "term_parity", "ordinal", "description", "kktp"},
			[]string{"subject_id", "phase", "term_parity", "ordinal"},
			o.SubjectID, string(o.Phase), o.TermParity, o.Ordinal, o.Description, o.RawThreshold); err != nil {
			return err
		}
	}
	for _, op := range data.Scores {
		if err := gs.upsertScore(ctx, tx, op); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BeginBatch records the start of a bulk save.
func (gs *GradeStoreImpl) BeginBatch(ctx context.Context, batchID string, startedAt time.Time) error {
	if gs.disabled() {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (batch_id, started_at, success_count, fail_count) VALUES (?, ?, 0, 0)`, gs.table(batchesTable))
	if _, err := gs.db.ExecContext(ctx, gs.q(query), batchID, formatTime(startedAt, gs.backend)); err != nil {
		return fmt.Errorf("failed to insert save batch: %w", err)
	}
	return nil
}

// EndBatch records the outcome of a bulk save.
func (gs *GradeStoreImpl) EndBatch(ctx context.Context, batchID string, finishedAt time.Time, result schema.BulkResult) error {
	if gs.disabled() {
		return nil
	}
	query := fmt.Sprintf(`UPDATE %s SET finished_at = ?, success_count = ?, fail_count = ? WHERE batch_id = ?`, gs.table(batchesTable))
	if _, err := gs.db.ExecContext(ctx, gs.q(query), formatTime(finishedAt, gs.backend), result.SuccessCount, result.FailCount, batchID); err != nil {
		return fmt.Errorf("failed to update save batch: %w", err)
	}
	return nil
}

// ListBatches returns every logged bulk save, oldest first.
func (gs *GradeStoreImpl) ListBatches(ctx context.Context) ([]schema.SaveBatchRecord, error) {
	if gs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT batch_id, started_at, finished_at, success_count, fail_count FROM %s ORDER BY started_at, batch_id`, gs.table(batchesTable))
	rows, err := gs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query save batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.SaveBatchRecord
	for rows.Next() {
		var rec schema.SaveBatchRecord

		switch gs.backend {
		case schema.SQLiteBackend:
			var startedStr string
			var finishedStr sql.NullString
			if err := rows.Scan(&rec.BatchID, &startedStr, &finishedStr, &rec.SuccessCount, &rec.FailCount); err != nil {
				return nil, fmt.Errorf("failed to scan save batch: %w", err)
			}
			started, err := parseTime(startedStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			rec.StartedAt = started
			if finishedStr.Valid {
				finished, err := parseTime(finishedStr.String)
				if err != nil {
					return nil, fmt.Errorf("failed to parse finished_at: %w", err)
				}
				rec.FinishedAt = &finished
			}
		default: // MySQL and PostgreSQL store as native datetime
			var finished sql.NullTime
			if err := rows.Scan(&rec.BatchID, &rec.StartedAt, &finished, &rec.SuccessCount, &rec.FailCount); err != nil {
				return nil, fmt.Errorf("failed to scan save batch: %w", err)
			}
			if finished.Valid {
				rec.FinishedAt = &finished.Time
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating save batches: %w", err)
	}
	return out, nil
}
