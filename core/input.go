package core

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/raporkit/rapor/schema"
)

// newBatchID returns a fresh id for a bulk save.
func newBatchID() string {
	return uuid.NewString()
}

// ReadScoreWritesFile loads a grade batch from a .json or .csv file. Rows that
// leave class or term empty inherit them from fallback.
func ReadScoreWritesFile(path string, fallback schema.Scope) ([]schema.ScoreWrite, error) {
	if path == "" {
		return nil, errors.New("--input is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseScoreWritesJSON(f, fallback)
	case ".csv":
		return ParseScoreWritesCSV(f, fallback)
	default:
		return nil, fmt.Errorf("unsupported input format %q, expected .json or .csv", filepath.Ext(path))
	}
}

// ParseScoreWritesJSON decodes a JSON array of grade writes.
func ParseScoreWritesJSON(r io.Reader, fallback schema.Scope) ([]schema.ScoreWrite, error) {
	var ops []schema.ScoreWrite
	if err := json.NewDecoder(r).Decode(&ops); err != nil {
		return nil, fmt.Errorf("failed to decode grade batch: %w", err)
	}
	for i := range ops {
		fillScope(&ops[i], fallback)
	}
	return ops, nil
}

// ParseScoreWritesCSV decodes a CSV grade batch. The header must name
// student_id, subject_id and value, plus either a column key ("TP2", "UAS")
// or kind and ordinal. class_id and term_id are optional.
func ParseScoreWritesCSV(r io.Reader, fallback schema.Scope) ([]schema.ScoreWrite, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"student_id", "subject_id", "value"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("CSV header is missing %q", required)
		}
	}
	_, hasColumn := idx["column"]
	_, hasKind := idx["kind"]
	if !hasColumn && !hasKind {
		return nil, errors.New(`CSV header needs "column" or "kind"`)
	}

	get := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var ops []schema.ScoreWrite
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		op := schema.ScoreWrite{
			StudentID: get(rec, "student_id"),
			SubjectID: get(rec, "subject_id"),
			ClassID:   get(rec, "class_id"),
			TermID:    get(rec, "term_id"),
		}
		if hasColumn && get(rec, "column") != "" {
			if err := applyColumn(&op, get(rec, "column")); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		} else {
			op.Kind = schema.AssessmentKind(strings.ToUpper(get(rec, "kind")))
			if s := get(rec, "ordinal"); s != "" {
				n, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid ordinal %q", line, s)
				}
				op.Ordinal = n
			}
		}
		if s := get(rec, "value"); s != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q", line, s)
			}
			op.Value = &v
		}
		fillScope(&op, fallback)
		ops = append(ops, op)
	}
	return ops, nil
}

// applyColumn sets kind and ordinal from a column key such as TP3 or UAS.
func applyColumn(op *schema.ScoreWrite, column string) error {
	key, err := schema.ParseColumnKey(column)
	if err != nil {
		return err
	}
	if n, ok := schema.TPOrdinal(key); ok {
		op.Kind = schema.KindTP
		op.Ordinal = n
		return nil
	}
	if key == schema.UASKey {
		op.Kind = schema.KindUAS
		return nil
	}
	return fmt.Errorf("column %s cannot be written", key)
}

func fillScope(op *schema.ScoreWrite, fallback schema.Scope) {
	if op.ClassID == "" {
		op.ClassID = fallback.ClassID
	}
	if op.TermID == "" {
		op.TermID = fallback.TermID
	}
	if op.SubjectID == "" {
		op.SubjectID = fallback.SubjectID
	}
}

// ReadDatasetFile loads a seed bundle of reference data and scores from a JSON file.
func ReadDatasetFile(path string) (schema.Dataset, error) {
	var data schema.Dataset
	if path == "" {
		return data, errors.New("--input is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return data, err
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return data, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return data, nil
}
