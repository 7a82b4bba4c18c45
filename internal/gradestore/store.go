package gradestore

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// GradeStoreImpl handles durable grade storage using various database backends.
type GradeStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.GradeStore = &GradeStoreImpl{} // Compile-time check

// NewGradeStore opens the store for the backend and ensures its tables exist.
func NewGradeStore(backend schema.DatabaseBackend, connStr string) (*GradeStoreImpl, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		cfg, perr := mysql.ParseDSN(connStr)
		if perr != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", perr)
		}
		cfg.ParseTime = true // scan DATETIME into time.Time
		db, err = sql.Open(driverName, cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=rapor
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		// Return a no-op store with empty reads
		return &GradeStoreImpl{backend: backend, connStr: connStr}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	// Create the table schemas
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create grade tables: %w", err)
	}

	return &GradeStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}, nil
}

// disabled reports whether the store is the no-op backend.
func (gs *GradeStoreImpl) disabled() bool {
	return gs.backend == schema.NoneBackend || gs.db == nil
}

// table returns the quoted name of a grade table.
func (gs *GradeStoreImpl) table(name string) string {
	return quoteTableName(name, gs.backend)
}

// q rewrites placeholders for the backend.
func (gs *GradeStoreImpl) q(query string) string {
	return rebind(query, gs.backend)
}

// Close closes the underlying connection.
func (gs *GradeStoreImpl) Close() error {
	if gs.db != nil {
		return gs.db.Close()
	}
	return nil
}
