package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/internal/parquet"
	"github.com/raporkit/rapor/schema"
)

// PrintSubjectResults outputs the subject pivot, dispatching based on the output format configured.
func PrintSubjectResults(result schema.SubjectResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOptional, fmtCSV := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSubjectCSV(w, result, fmtCSV)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetNeedsFile
		}
		if err := parquet.WriteGradeCellsParquet(parquet.ConvertGradeCells(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Printf("Exported %d grade cells to: %s\n", len(result.Rows)*(len(result.Columns)+1), cfg.OutputFile)
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSubjectTable(w, result, cfg, fmtFloat, fmtOptional, duration)
		}, "Wrote table")
	}
	return nil
}

// writeSubjectTable generates and writes the human-readable pivot table.
func writeSubjectTable(w io.Writer, result schema.SubjectResult, cfg *contract.Config, fmtFloat func(float64) string, fmtOptional func(*float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	headers := []string{"#", "Student"}
	for _, key := range result.Columns {
		headers = append(headers, string(key))
	}
	headers = append(headers, "TP Avg", "Average", "Final")
	table.Header(headers)

	// 2. Configure alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	nameWidth := GetMaxNameWidth(cfg, len(result.Columns)+3)
	data := make([][]string, 0, len(result.Rows))
	for i, r := range result.Rows {
		row := []string{
			strconv.Itoa(i + 1),
			fitName(r.StudentName, nameWidth),
		}
		for _, key := range result.Columns {
			row = append(row, contract.MarkBelow(fmtOptional(r.Values[key]), r.Below[key], cfg.UseColors))
		}
		row = append(row,
			fmtOptional(r.TPAverage),
			fmtOptional(r.Average),
			contract.MarkBelow(fmtOptional(r.FinalGrade), r.Below[schema.FinalKey], cfg.UseColors),
		)
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	source := "curriculum"
	if result.Manual {
		source = "manual"
	}
	if _, err := fmt.Fprintf(w, "Showing %d students · %d objectives (%s) · phase %s\n", len(result.Rows), len(result.Columns)-1, source, phaseLabel(result.Phase)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Thresholds: %s\n", formatThresholds(result.Columns, result.Thresholds, fmtFloat)); err != nil {
		return err
	}
	if s := formatSort(result.SortKey, result.SortDirection); s != "" {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Summary completed in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeSubjectCSV writes one row per student with every grade column.
func writeSubjectCSV(w io.Writer, result schema.SubjectResult, fmtCSV func(*float64) string) error {
	header := []string{"student_id", "student_name"}
	for _, key := range result.Columns {
		header = append(header, string(key))
	}
	header = append(header, "tp_average", "average", "final", "below")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range result.Rows {
			row := []string{r.StudentID, r.StudentName}
			for _, key := range result.Columns {
				row = append(row, fmtCSV(r.Values[key]))
			}
			row = append(row, fmtCSV(r.TPAverage), fmtCSV(r.Average), fmtCSV(r.FinalGrade), belowList(result.Columns, r.Below))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// belowList joins the flagged columns of a row in column order, e.g. "TP1|FINAL".
func belowList(columns []schema.ColumnKey, below map[schema.ColumnKey]bool) string {
	out := ""
	for _, key := range append(append([]schema.ColumnKey{}, columns...), schema.FinalKey) {
		if !below[key] {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += string(key)
	}
	return out
}

// phaseLabel renders an unknown phase as "-".
func phaseLabel(p schema.Phase) string {
	if p == "" {
		return "-"
	}
	return string(p)
}
