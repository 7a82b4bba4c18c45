package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TPKey returns the column key for the TP column with the given ordinal.
func TPKey(ordinal int) ColumnKey {
	return ColumnKey(fmt.Sprintf("TP%d", ordinal))
}

// TPOrdinal returns the ordinal of a TP column key, or false for UAS, FINAL and junk.
func TPOrdinal(key ColumnKey) (int, bool) {
	s := string(key)
	if !strings.HasPrefix(s, "TP") {
		return 0, false
	}
	n, err := strconv.Atoi(s[2:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ParseColumnKey normalizes user input such as "tp2", "uas" or "final".
func ParseColumnKey(s string) (ColumnKey, error) {
	key := ColumnKey(strings.ToUpper(strings.TrimSpace(s)))
	switch key {
	case UASKey, FinalKey:
		return key, nil
	}
	if _, ok := TPOrdinal(key); ok {
		return key, nil
	}
	return "", fmt.Errorf("invalid column key '%s', expected TP<n>, UAS or FINAL", s)
}

// String renders the scope as "class/subject/term". A class-wide scope omits the subject.
func (s Scope) String() string {
	if s.SubjectID == "" {
		return s.ClassID + "/" + s.TermID
	}
	return s.ClassID + "/" + s.SubjectID + "/" + s.TermID
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// FormatOptional renders a nullable number with the given formatter, or "-" when absent.
func FormatOptional(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return "-"
	}
	return fmtFloat(*v)
}

// Message renders the bulk save summary line.
func (r BulkResult) Message() string {
	return fmt.Sprintf("%d saved, %d failed", r.SuccessCount, r.FailCount)
}

// cleanParts trims punctuation from the ends of each name part.
func cleanParts(parts []string) []string {
	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
		})
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	return cleaned
}

// AbbreviateName shortens "Siti Nur Aisyah" to "Siti N. A." for narrow tables.
// Single-word names are returned unchanged.
func AbbreviateName(name string) string {
	cleaned := cleanParts(strings.Fields(name))
	switch len(cleaned) {
	case 0:
		return strings.TrimSpace(name)
	case 1:
		return cleaned[0]
	}
	var b strings.Builder
	b.WriteString(cleaned[0])
	for _, part := range cleaned[1:] {
		b.WriteByte(' ')
		b.WriteRune([]rune(part)[0])
		b.WriteByte('.')
	}
	return b.String()
}
