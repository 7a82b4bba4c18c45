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

// PrintClassResults outputs the cross-subject class summary, dispatching based on the output format configured.
func PrintClassResults(result schema.ClassResult, cfg *contract.Config, duration time.Duration) error {
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
			return writeClassCSV(w, result, fmtCSV)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetNeedsFile
		}
		if err := parquet.WriteStudentSummariesParquet(parquet.ConvertStudentSummaries(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Printf("Exported %d student summaries to: %s\n", len(result.Rows), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassTable(w, result, cfg, fmtFloat, fmtOptional, duration)
		}, "Wrote table")
	}
	return nil
}

// rankLabel renders an unranked student as "-".
func rankLabel(rank int) string {
	if rank == 0 {
		return "-"
	}
	return strconv.Itoa(rank)
}

// writeClassTable generates and writes the human-readable class summary.
func writeClassTable(w io.Writer, result schema.ClassResult, cfg *contract.Config, fmtFloat func(float64) string, fmtOptional func(*float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "Student"}
	for _, s := range result.Subjects {
		headers = append(headers, s.ID)
	}
	headers = append(headers, "Average", "Band", "Final")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxNameWidth(cfg, len(result.Subjects)+3)
	data := make([][]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		row := []string{
			rankLabel(result.Ranks[r.StudentID]),
			fitName(r.StudentName, nameWidth),
		}
		for _, s := range result.Subjects {
			row = append(row, fmtOptional(r.PerSubjectAverage[s.ID]))
		}
		row = append(row,
			fmtOptional(r.OverallAverage),
			bandLabel(r.Band, cfg.UseColors),
			contract.MarkBelow(fmtOptional(r.FinalGrade), r.FinalBelow, cfg.UseColors),
		)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d students across %d subjects\n", len(result.Rows), len(result.Subjects)); err != nil {
		return err
	}
	finalPolicy := "off"
	if result.FinalThreshold != nil {
		finalPolicy = fmtFloat(*result.FinalThreshold)
	}
	if _, err := fmt.Fprintf(w, "Final threshold: %s\n", finalPolicy); err != nil {
		return err
	}
	if err := writeUnavailable(w, result.Unavailable); err != nil {
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

// writeClassCSV writes one row per student with the per-subject averages.
func writeClassCSV(w io.Writer, result schema.ClassResult, fmtCSV func(*float64) string) error {
	header := []string{"rank", "student_id", "student_name"}
	for _, s := range result.Subjects {
		header = append(header, s.ID)
	}
	header = append(header, "average", "band", "final", "final_below")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range result.Rows {
			rank := ""
			if n := result.Ranks[r.StudentID]; n > 0 {
				rank = strconv.Itoa(n)
			}
			row := []string{rank, r.StudentID, r.StudentName}
			for _, s := range result.Subjects {
				row = append(row, fmtCSV(r.PerSubjectAverage[s.ID]))
			}
			row = append(row, fmtCSV(r.OverallAverage), r.Band, fmtCSV(r.FinalGrade), strconv.FormatBool(r.FinalBelow))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
