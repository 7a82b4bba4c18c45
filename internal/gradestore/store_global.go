package gradestore

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for grade storage.
func GetDBFilePath() string {
	return contract.GetDBFilePath()
}

// InitStores initializes the global manager with the configured grade store.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		store, err := NewGradeStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize grade store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.grades = store
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.grades != nil {
			_ = Manager.grades.Close()
		}
	})
}

// ClearStore removes all grade data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTables("mysql", backend, connStr)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", backend, connStr)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops every grade table.
func clearSQLTables(driverName string, backend schema.DatabaseBackend, connStr string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range allTables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	// golang-migrate bookkeeping, when migrations were used
	_, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName("schema_migrations", backend)))
	return nil
}
