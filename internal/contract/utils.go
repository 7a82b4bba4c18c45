package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/raporkit/rapor/schema"
)

// Color variables for console output.
var (
	BandAColor = color.New(color.FgGreen, color.Bold) // excellent
	BandBColor = color.New(color.FgCyan)              // good
	BandCColor = color.New(color.FgYellow)            // sufficient
	BandDColor = color.New(color.FgMagenta)           // needs guidance
	BandEColor = color.New(color.FgRed, color.Bold)   // failing
	BelowColor = color.New(color.FgRed)               // cell below its threshold
)

// GetColorBand returns the band label colored for console output.
func GetColorBand(label string) string {
	switch label {
	case schema.BandA:
		return BandAColor.Sprint(label)
	case schema.BandB:
		return BandBColor.Sprint(label)
	case schema.BandC:
		return BandCColor.Sprint(label)
	case schema.BandD:
		return BandDColor.Sprint(label)
	default:
		return BandEColor.Sprint(label)
	}
}

// MarkBelow decorates a formatted cell that fails its threshold. Without colors
// the cell gets a trailing '*' so the flag survives plain text.
func MarkBelow(cell string, below, useColors bool) string {
	if !below {
		return cell
	}
	if useColors {
		return BelowColor.Sprint(cell)
	}
	return cell + "*"
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file for grade storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rapor.db"
	}
	return filepath.Join(homeDir, ".rapor.db")
}

// TruncateName truncates a student name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character of content remains.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
