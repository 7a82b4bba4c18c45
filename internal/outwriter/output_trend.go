package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// PrintTrendResults outputs the chronological series, dispatching based on the output format configured.
func PrintTrendResults(result schema.TrendResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendCSV(w, result, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for trends, use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// trendSubject describes who the trend is about, e.g. "student s1".
func trendSubject(f schema.TrendFilter) string {
	switch f.Grouping {
	case schema.TrendByStudent:
		return "student " + f.StudentID
	case schema.TrendByCohort:
		return "cohort " + f.Cohort
	default:
		return "class " + f.ClassID
	}
}

// writeTrendTable generates a wide table: one row per period, one column per series.
// A series without data in a period shows "-".
func writeTrendTable(w io.Writer, result schema.TrendResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header(append([]string{"Period"}, result.Series...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Points))
	for _, p := range result.Points {
		row := []string{p.PeriodKey}
		for _, s := range result.Series {
			if v, ok := p.Series[s]; ok {
				row = append(row, fmtFloat(v))
			} else {
				row = append(row, "-")
			}
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend for %s: %d periods, %d series (%s)\n", trendSubject(result.Filter), len(result.Points), len(result.Series), strings.Join(result.Series, ", ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend completed in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeTrendCSV writes the trend in long format: one row per period and series.
func writeTrendCSV(w io.Writer, result schema.TrendResult, fmtFloat func(float64) string) error {
	header := []string{"period", "year", "term_half", "series", "average"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.Points {
			for _, s := range result.Series {
				v, ok := p.Series[s]
				if !ok {
					continue
				}
				row := []string{p.PeriodKey, p.YearLabel, strconv.Itoa(p.TermHalf), s, fmtFloat(v)}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
