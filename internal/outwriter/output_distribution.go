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

// barWidth is the number of cells of a 100% histogram bar.
const barWidth = 20

// PrintDistributionResults outputs the letter-grade histogram, dispatching based on the output format configured.
func PrintDistributionResults(result schema.DistributionResult, cfg *contract.Config, duration time.Duration) error {
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
			return writeDistributionCSV(w, result, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for distributions, use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistributionTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// histogramBar renders a percentage as a bar of block characters.
func histogramBar(pct float64) string {
	n := int(pct/100*barWidth + 0.5)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n)
}

// writeDistributionTable generates and writes the human-readable histogram.
func writeDistributionTable(w io.Writer, result schema.DistributionResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Band", "Range", "Count", "Percent", ""})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		data = append(data, []string{
			bandLabel(b.Label, cfg.UseColors),
			fmt.Sprintf("%g-%g", b.Min, b.Max),
			strconv.Itoa(b.Count),
			fmtFloat(b.Percentage) + "%",
			histogramBar(b.Percentage),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Graded students: %d (excluded without grades: %d)\n", result.Graded, result.Excluded); err != nil {
		return err
	}
	if err := writeUnavailable(w, result.Unavailable); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Distribution completed in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeDistributionCSV writes one row per band.
func writeDistributionCSV(w io.Writer, result schema.DistributionResult, fmtFloat func(float64) string) error {
	header := []string{"band", "min", "max", "count", "percentage"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range result.Buckets {
			row := []string{
				b.Label,
				strconv.FormatFloat(b.Min, 'f', -1, 64),
				strconv.FormatFloat(b.Max, 'f', -1, 64),
				strconv.Itoa(b.Count),
				fmtFloat(b.Percentage),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
