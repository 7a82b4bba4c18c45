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
	"github.com/raporkit/rapor/schema"
)

// PrintObjectiveResults outputs the resolved objective columns, dispatching based on the output format configured.
func PrintObjectiveResults(result schema.ObjectiveResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOptional, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeObjectivesCSV(w, result, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for objectives, use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeObjectivesTable(w, result, cfg, fmtFloat, fmtOptional, duration)
		}, "Wrote table")
	}
	return nil
}

// thresholdCell renders the effective threshold of a column, or "off".
func thresholdCell(ts schema.ThresholdSet, key schema.ColumnKey, fmtFloat func(float64) string) string {
	if v, ok := ts[key]; ok {
		return fmtFloat(v)
	}
	return "off"
}

// parityLabel renders the term parity of a resolved set.
func parityLabel(parity int) string {
	switch parity {
	case schema.FirstParity:
		return "odd term"
	case schema.SecondParity:
		return "even term"
	default:
		return "any term"
	}
}

// writeObjectivesTable writes one row per TP column plus UAS and FINAL.
func writeObjectivesTable(w io.Writer, result schema.ObjectiveResult, cfg *contract.Config, fmtFloat func(float64) string, fmtOptional func(*float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Column", "Objective", "KKTP", "Threshold"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(result.Objectives)+2)
	for _, obj := range result.Objectives {
		key := schema.TPKey(obj.Ordinal)
		data = append(data, []string{
			string(key),
			obj.Description,
			fmtOptional(obj.SuggestedThreshold),
			thresholdCell(result.Thresholds, key, fmtFloat),
		})
	}
	data = append(data,
		[]string{string(schema.UASKey), "End-of-term assessment", "-", thresholdCell(result.Thresholds, schema.UASKey, fmtFloat)},
		[]string{string(schema.FinalKey), "Final grade", "-", thresholdCell(result.Thresholds, schema.FinalKey, fmtFloat)},
	)

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	source := "curriculum"
	if result.Manual {
		source = "manual fallback"
	}
	if _, err := fmt.Fprintf(w, "Objectives: %d from %s · phase %s · %s\n", len(result.Objectives), source, phaseLabel(result.Phase), parityLabel(result.Parity)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Resolved in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeObjectivesCSV writes one row per TP column.
func writeObjectivesCSV(w io.Writer, result schema.ObjectiveResult, fmtFloat func(float64) string) error {
	header := []string{"column", "ordinal", "description", "kktp", "threshold"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, obj := range result.Objectives {
			key := schema.TPKey(obj.Ordinal)
			kktp := ""
			if obj.SuggestedThreshold != nil {
				kktp = fmtFloat(*obj.SuggestedThreshold)
			}
			threshold := ""
			if v, ok := result.Thresholds[key]; ok {
				threshold = fmtFloat(v)
			}
			row := []string{string(key), strconv.Itoa(obj.Ordinal), obj.Description, kktp, threshold}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
