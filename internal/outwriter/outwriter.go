// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"strings"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// LogScopeHeader prints a concise, 2-line header naming the class, term and subject
// being reported. Machine-readable output modes get no header.
func LogScopeHeader(cfg *contract.Config, class schema.Class, term schema.Term, subjectName string) {
	if !isTextOutput(cfg) {
		return
	}

	// Line 1: Class and the subject, when one is selected
	className := class.Name
	if className == "" {
		className = class.ID
	}
	if subjectName != "" {
		fmt.Printf("🏫 Class: %s · Subject: %s\n", className, subjectName)
	} else {
		fmt.Printf("🏫 Class: %s · All subjects\n", className)
	}

	// Line 2: Term and academic year
	termName := term.Name
	if termName == "" {
		termName = term.ID
	}
	if term.YearLabel != "" {
		fmt.Printf("📅 Term: %s %s\n", term.YearLabel, termName)
	} else {
		fmt.Printf("📅 Term: %s\n", termName)
	}
}

// isTextOutput reports whether the configured output is the human-readable table.
func isTextOutput(cfg *contract.Config) bool {
	return cfg.Output == "" || cfg.Output == schema.TextOut
}

// formatThresholds renders a threshold set in column order, e.g. "TP1 70.00 · UAS 75.00".
// Columns without a policy are shown as "off".
func formatThresholds(columns []schema.ColumnKey, thresholds schema.ThresholdSet, fmtFloat func(float64) string) string {
	keys := append(append([]schema.ColumnKey{}, columns...), schema.FinalKey)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if v, ok := thresholds[key]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", key, fmtFloat(v)))
		} else {
			parts = append(parts, fmt.Sprintf("%s off", key))
		}
	}
	return strings.Join(parts, " · ")
}

// formatSort describes the active sort, or "" when rows are in natural order.
func formatSort(key string, direction schema.SortDirection) string {
	if key == "" || direction == schema.SortNone || direction == "" {
		return ""
	}
	return fmt.Sprintf("Sorted by %s (%s)", key, direction)
}

// bandLabel returns the band of a student, colored when colors are enabled.
func bandLabel(band string, useColors bool) string {
	if band == "" {
		return "-"
	}
	if useColors {
		return contract.GetColorBand(band)
	}
	return band
}
