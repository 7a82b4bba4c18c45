package gradestore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/raporkit/rapor/schema"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that a table name is safe to use in SQL queries.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// rebind rewrites '?' placeholders as $1, $2, ... for PostgreSQL.
// Queries must not contain literal question marks.
func rebind(query string, backend schema.DatabaseBackend) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// parseTime reads a SQLite text timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// upsertQuery builds the backend-specific insert-or-update statement for a table
// whose primary key is keyCols.
func upsertQuery(table string, cols, keyCols []string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	isKey := make(map[string]bool, len(keyCols))
	for _, k := range keyCols {
		isKey[k] = true
	}
	var updates []string

	switch backend {
	case schema.MySQLBackend:
		for _, c := range cols {
			if !isKey[c] {
				updates = append(updates, fmt.Sprintf("%s = new.%s", c, c))
			}
		}
		if len(updates) == 0 {
			updates = append(updates, fmt.Sprintf("%s = new.%s", keyCols[0], keyCols[0]))
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE %s`, quoted, strings.Join(cols, ", "), marks, strings.Join(updates, ", "))

	case schema.PostgreSQLBackend:
		for _, c := range cols {
			if !isKey[c] {
				updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
			}
		}
		action := "DO NOTHING"
		if len(updates) > 0 {
			action = "DO UPDATE SET " + strings.Join(updates, ", ")
		}
		return rebind(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (%s) %s`, quoted, strings.Join(cols, ", "), marks, strings.Join(keyCols, ", "), action), backend)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, quoted, strings.Join(cols, ", "), marks)
	}
}

// nullableFloat converts a nullable grade into a driver value.
func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
