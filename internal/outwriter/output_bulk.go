package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// bulkReport is the serialized form of a save batch, with its summary line.
type bulkReport struct {
	schema.BulkResult
	Message string `json:"message"`
}

// PrintBulkResult outputs the outcome of a bulk save.
func PrintBulkResult(result schema.BulkResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, bulkReport{BulkResult: result, Message: result.Message()})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"batch_id", "success_count", "fail_count", "message"}, func(cw *csv.Writer) error {
				return cw.Write([]string{result.BatchID, strconv.Itoa(result.SuccessCount), strconv.Itoa(result.FailCount), result.Message()})
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for save results, use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBulkText(w, result, cfg, duration)
		}, "Wrote summary")
	}
	return nil
}

// writeBulkText writes the summary line of a save batch.
func writeBulkText(w io.Writer, result schema.BulkResult, cfg *contract.Config, duration time.Duration) error {
	icon := "✅"
	if result.FailCount > 0 {
		icon = "⚠️"
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", icon, result.Message()); err != nil {
		return err
	}
	if result.BatchID != "" {
		if _, err := fmt.Fprintf(w, "Batch: %s\n", result.BatchID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Save completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}
