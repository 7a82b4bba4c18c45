package outwriter

import (
	"os"
	"unicode/utf8"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	"golang.org/x/term"
)

// fitName shortens a student name to the name column width.
// Middle and last names are abbreviated first; truncation is the last resort.
func fitName(name string, width int) string {
	if utf8.RuneCountInString(name) <= width {
		return name
	}
	return contract.TruncateName(schema.AbbreviateName(name), width)
}

// GetMaxNameWidth calculates the maximum width for student names in table output
// based on terminal width and the number of numeric grade columns next to it.
func GetMaxNameWidth(cfg *contract.Config, numericColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Each numeric cell is at most "100.00*" plus padding and separator
	baseWidth := 6 + numericColumns*10

	// Reserve space for table borders
	baseWidth += 4

	// Calculate available space for the name
	available := termWidth - baseWidth
	if available < 12 {
		// Minimum reasonable name width
		return 12
	}
	if available > 40 {
		// Maximum name width to keep tables compact
		return 40
	}
	return available
}
