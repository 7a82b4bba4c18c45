package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// errParquetNeedsFile is returned when parquet output is requested without --output-file.
var errParquetNeedsFile = errors.New("--output-file is required for parquet output")

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// writeUnavailable lists the subjects a class view had to leave out.
func writeUnavailable(w io.Writer, issues []schema.SubjectIssue) error {
	for _, issue := range issues {
		if _, err := fmt.Fprintf(w, "Unavailable subject %s: %s\n", issue.Subject.ID, issue.Error); err != nil {
			return err
		}
	}
	return nil
}

// createFormatters creates the grade formatter closures used across output types.
// fmtOptional renders nil grades as "-" for tables; fmtCSV renders them as "".
func createFormatters(precision int) (fmtFloat func(float64) string, fmtOptional func(*float64) string, fmtCSV func(*float64) string) {
	numFmt := "%.*f"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	fmtOptional = func(v *float64) string {
		return schema.FormatOptional(v, fmtFloat)
	}
	fmtCSV = func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmtFloat(*v)
	}
	return fmtFloat, fmtOptional, fmtCSV
}
