// Package parquet provides data structures and functions for exporting rapor
// grade data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/raporkit/rapor/schema"
)

// GradeCell is one cell of a subject pivot: a student, a column and its value.
type GradeCell struct {
	// ClassID, SubjectID and TermID identify the scope of the cell
	ClassID   string `parquet:"class_id,snappy"`
	SubjectID string `parquet:"subject_id,snappy"`
	TermID    string `parquet:"term_id,snappy"`

	StudentID   string `parquet:"student_id,snappy"`
	StudentName string `parquet:"student_name,snappy"`

	// ColumnKey is TP<n>, UAS or FINAL
	ColumnKey string `parquet:"column_key,snappy"`

	// Value is nil for ungraded cells
	Value *float64 `parquet:"value,optional,snappy"`

	// Below is true when the cell fails its threshold
	Below bool `parquet:"below,snappy"`
}

// SubjectSummaryRow is the per-student, per-subject summary.
type SubjectSummaryRow struct {
	ClassID     string   `parquet:"class_id,snappy"`
	TermID      string   `parquet:"term_id,snappy"`
	SubjectID   string   `parquet:"subject_id,snappy"`
	SubjectName string   `parquet:"subject_name,snappy"`
	StudentID   string   `parquet:"student_id,snappy"`
	StudentName string   `parquet:"student_name,snappy"`
	TPAverage   *float64 `parquet:"tp_average,optional,snappy"`
	Average     *float64 `parquet:"average,optional,snappy"`
	FinalGrade  *float64 `parquet:"final_grade,optional,snappy"`
}

// StudentSummaryRow is the cross-subject summary of one student.
type StudentSummaryRow struct {
	ClassID        string   `parquet:"class_id,snappy"`
	TermID         string   `parquet:"term_id,snappy"`
	StudentID      string   `parquet:"student_id,snappy"`
	StudentName    string   `parquet:"student_name,snappy"`
	Rank           int32    `parquet:"rank,snappy"` // 0 when unranked
	OverallAverage *float64 `parquet:"overall_average,optional,snappy"`
	FinalGrade     *float64 `parquet:"final_grade,optional,snappy"`
	FinalBelow     bool     `parquet:"final_below,snappy"`
	Band           *string  `parquet:"band,optional,snappy"`
}

// SaveBatch is one row of the bulk save log.
type SaveBatch struct {
	BatchID string `parquet:"batch_id,snappy"`

	// StartedAt is stored as TIMESTAMP with nanosecond precision
	StartedAt time.Time `parquet:"started_at,snappy"`

	// FinishedAt is nil while a batch is still running
	FinishedAt *time.Time `parquet:"finished_at,optional,snappy"`

	SuccessCount int32 `parquet:"success_count,snappy"`
	FailCount    int32 `parquet:"fail_count,snappy"`
}

// writeParquet writes rows of any struct type to a Parquet file, inferring the
// schema from the struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer, so its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteGradeCellsParquet writes grade cells to a Parquet file.
func WriteGradeCellsParquet(data []GradeCell, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSubjectSummariesParquet writes subject summaries to a Parquet file.
func WriteSubjectSummariesParquet(data []SubjectSummaryRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteStudentSummariesParquet writes student summaries to a Parquet file.
func WriteStudentSummariesParquet(data []StudentSummaryRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSaveBatchesParquet writes the save batch log to a Parquet file.
func WriteSaveBatchesParquet(data []SaveBatch, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertGradeCells flattens a subject pivot into one cell per student and column,
// FINAL included. Cells are emitted in row order, then column order.
func ConvertGradeCells(result schema.SubjectResult) []GradeCell {
	keys := append(append([]schema.ColumnKey{}, result.Columns...), schema.FinalKey)
	cells := make([]GradeCell, 0, len(result.Rows)*len(keys))
	for _, row := range result.Rows {
		for _, key := range keys {
			value := row.Values[key]
			if key == schema.FinalKey {
				value = row.FinalGrade
			}
			cells = append(cells, GradeCell{
				ClassID:     result.Class.ID,
				SubjectID:   result.Subject.ID,
				TermID:      result.Term.ID,
				StudentID:   row.StudentID,
				StudentName: row.StudentName,
				ColumnKey:   string(key),
				Value:       value,
				Below:       row.Below[key],
			})
		}
	}
	return cells
}

// ConvertSubjectSummaries converts the rows of a subject pivot for Parquet export.
func ConvertSubjectSummaries(result schema.SubjectResult) []SubjectSummaryRow {
	rows := make([]SubjectSummaryRow, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = SubjectSummaryRow{
			ClassID:     result.Class.ID,
			TermID:      result.Term.ID,
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			TPAverage:   row.TPAverage,
			Average:     row.Average,
			FinalGrade:  row.FinalGrade,
		}
	}
	return rows
}

// ConvertStudentSummaries converts the rows of a class summary for Parquet export.
func ConvertStudentSummaries(result schema.ClassResult) []StudentSummaryRow {
	rows := make([]StudentSummaryRow, len(result.Rows))
	for i, row := range result.Rows {
		var band *string
		if row.Band != "" {
			b := row.Band
			band = &b
		}
		rows[i] = StudentSummaryRow{
			ClassID:        result.Class.ID,
			TermID:         result.Term.ID,
			StudentID:      row.StudentID,
			StudentName:    row.StudentName,
			Rank:           int32(result.Ranks[row.StudentID]),
			OverallAverage: row.OverallAverage,
			FinalGrade:     row.FinalGrade,
			FinalBelow:     row.FinalBelow,
			Band:           band,
		}
	}
	return rows
}

// ConvertSaveBatchRecords converts schema.SaveBatchRecord to SaveBatch for Parquet export.
func ConvertSaveBatchRecords(records []schema.SaveBatchRecord) []SaveBatch {
	result := make([]SaveBatch, len(records))
	for i, record := range records {
		result[i] = SaveBatch{
			BatchID:      record.BatchID,
			StartedAt:    record.StartedAt,
			FinishedAt:   record.FinishedAt,
			SuccessCount: int32(record.SuccessCount),
			FailCount:    int32(record.FailCount),
		}
	}
	return result
}
