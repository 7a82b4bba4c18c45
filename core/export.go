package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/parquet"
	"github.com/raporkit/rapor/schema"
)

// ExportFiles lists the Parquet files written by one export.
type ExportFiles struct {
	Grades   string
	Subjects string
	Students string
	Batches  string
}

// exportFiles derives the per-table file names from the --output-file prefix.
func exportFiles(prefix string) ExportFiles {
	return ExportFiles{
		Grades:   prefix + ".grades.parquet",
		Subjects: prefix + ".subjects.parquet",
		Students: prefix + ".students.parquet",
		Batches:  prefix + ".save_batches.parquet",
	}
}

// ExecuteExport recomputes the configured class and term across all subjects and
// exports grade cells, subject summaries, student summaries and the save batch
// log to Parquet files next to cfg.OutputFile.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if cfg.OutputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	classCfg := cfg.CloneWithScope(schema.Scope{ClassID: cfg.Scope.ClassID, TermID: cfg.Scope.TermID})
	input, err := LoadScope(ctx, classCfg, mgr)
	if err != nil {
		return err
	}
	state := Recompute(input, classCfg)
	if len(state.Students) == 0 {
		return fmt.Errorf("no students found to export for class %s, term %s", cfg.Scope.ClassID, cfg.Scope.TermID)
	}

	store := mgr.GetGradeStore()
	batches, err := store.ListBatches(ctx)
	if err != nil {
		return sourceError("save batches", err)
	}

	fmt.Printf("Exporting class %s, term %s from %s backend...\n", state.Class.ID, state.Term.ID, cfg.StoreBackend)
	fmt.Printf("Total subjects: %d\n", len(state.Subjects))
	fmt.Printf("Total students: %d\n", len(state.Students))
	for _, issue := range state.Unavailable {
		contract.LogWarn("Skipping subject "+issue.Subject.ID, errors.New(issue.Error))
	}

	// Subjects keep their natural order; the class sort applies to students only
	subjectCfg := classCfg.Clone()
	subjectCfg.SortKey = ""

	var cells []parquet.GradeCell
	var summaries []parquet.SubjectSummaryRow
	for _, sub := range state.Subjects {
		result := subjectResult(state, sub, subjectCfg)
		cells = append(cells, parquet.ConvertGradeCells(result)...)
		summaries = append(summaries, parquet.ConvertSubjectSummaries(result)...)
	}
	students := parquet.ConvertStudentSummaries(classResult(state, cfg))

	files := exportFiles(cfg.OutputFile)

	if err := parquet.WriteGradeCellsParquet(cells, files.Grades); err != nil {
		return fmt.Errorf("failed to write grade cells: %w", err)
	}
	fmt.Printf("Exported %d grade cells to: %s\n", len(cells), files.Grades)

	if err := parquet.WriteSubjectSummariesParquet(summaries, files.Subjects); err != nil {
		return fmt.Errorf("failed to write subject summaries: %w", err)
	}
	fmt.Printf("Exported %d subject summaries to: %s\n", len(summaries), files.Subjects)

	if err := parquet.WriteStudentSummariesParquet(students, files.Students); err != nil {
		return fmt.Errorf("failed to write student summaries: %w", err)
	}
	fmt.Printf("Exported %d student summaries to: %s\n", len(students), files.Students)

	saveBatches := parquet.ConvertSaveBatchRecords(batches)
	if err := parquet.WriteSaveBatchesParquet(saveBatches, files.Batches); err != nil {
		return fmt.Errorf("failed to write save batches: %w", err)
	}
	fmt.Printf("Exported %d save batches to: %s\n", len(saveBatches), files.Batches)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
