package gradestore

import (
	"database/sql"
	"fmt"

	"github.com/raporkit/rapor/schema"
)

// Table names.
const (
	classesTable    = "classes"
	subjectsTable   = "subjects"
	termsTable      = "terms"
	studentsTable   = "students"
	objectivesTable = "learning_objectives"
	scoresTable     = "assessment_scores"
	thresholdsTable = "threshold_settings"
	batchesTable    = "save_batches"
)

// allTables lists every grade table in creation order.
var allTables = []string{
	classesTable,
	subjectsTable,
	termsTable,
	studentsTable,
	objectivesTable,
	scoresTable,
	thresholdsTable,
	batchesTable,
}

// columnTypes are the per-backend SQL types used in the schema.
type columnTypes struct {
	Key  string // identifiers and short labels
	Text string
	Int  string
	Real string
	Time string
}

func typesFor(backend schema.DatabaseBackend) columnTypes {
	switch backend {
	case schema.MySQLBackend:
		return columnTypes{Key: "VARCHAR(64)", Text: "TEXT", Int: "INT", Real: "DOUBLE", Time: "DATETIME(6)"}
	case schema.PostgreSQLBackend:
		return columnTypes{Key: "TEXT", Text: "TEXT", Int: "INTEGER", Real: "DOUBLE PRECISION", Time: "TIMESTAMPTZ"}
	default: // SQLite
		return columnTypes{Key: "TEXT", Text: "TEXT", Int: "INTEGER", Real: "REAL", Time: "TEXT"}
	}
}

// createTables creates every grade table if it does not exist yet.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range allTables {
		if _, err := db.Exec(getCreateTableQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given table and backend.
func getCreateTableQuery(table string, backend schema.DatabaseBackend) string {
	t := typesFor(backend)
	q := quoteTableName(table, backend)

	switch table {
	case classesTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id %s PRIMARY KEY,
				name %s NOT NULL,
				grade_level %s NOT NULL
			);
		`, q, t.Key, t.Text, t.Int)

	case subjectsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id %s PRIMARY KEY,
				name %s NOT NULL
			);
		`, q, t.Key, t.Text)

	case termsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id %s PRIMARY KEY,
				name %s NOT NULL,
				year_label %s NOT NULL,
				half %s NOT NULL DEFAULT 0
			);
		`, q, t.Key, t.Text, t.Key, t.Int)

	case studentsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id %s PRIMARY KEY,
				name %s NOT NULL,
				class_id %s NOT NULL,
				cohort %s NOT NULL DEFAULT ''
			);
		`, q, t.Key, t.Text, t.Key, t.Key)

	case objectivesTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				subject_id %s NOT NULL,
				phase %s NOT NULL,
				term_parity %s NOT NULL DEFAULT 0,
				ordinal %s NOT NULL,
				description %s,
				kktp %s,
				PRIMARY KEY (subject_id, phase, term_parity, ordinal)
			);
		`, q, t.Key, t.Key, t.Int, t.Int, t.Text, t.Key)

	case scoresTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				student_id %s NOT NULL,
				subject_id %s NOT NULL,
				class_id %s NOT NULL,
				term_id %s NOT NULL,
				kind %s NOT NULL,
				ordinal %s NOT NULL DEFAULT 0,
				value %s,
				updated_at %s NOT NULL,
				PRIMARY KEY (student_id, subject_id, term_id, kind, ordinal)
			);
		`, q, t.Key, t.Key, t.Key, t.Key, t.Key, t.Int, t.Real, t.Time)

	case thresholdsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				class_id %s NOT NULL,
				subject_id %s NOT NULL DEFAULT '',
				term_id %s NOT NULL,
				column_key %s NOT NULL,
				value %s,
				PRIMARY KEY (class_id, subject_id, term_id, column_key)
			);
		`, q, t.Key, t.Key, t.Key, t.Key, t.Real)

	case batchesTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				batch_id %s PRIMARY KEY,
				started_at %s NOT NULL,
				finished_at %s,
				success_count %s NOT NULL DEFAULT 0,
				fail_count %s NOT NULL DEFAULT 0
			);
		`, q, t.Key, t.Time, t.Time, t.Int, t.Int)

	default:
		return ""
	}
}
