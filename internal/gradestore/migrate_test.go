package gradestore

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/raporkit/rapor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		sub, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
		require.NoError(t, err)
		up, err := fs.ReadFile(sub, "000001_init.up.sql")
		require.NoError(t, err, backend)
		for _, table := range allTables {
			assert.Contains(t, string(up), quoteTableName(table, backend))
		}
		_, err = fs.ReadFile(sub, "000001_init.down.sql")
		require.NoError(t, err, backend)
	}
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))
	// Running again is a no-op
	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))

	store, err := NewGradeStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Len(t, status.TableSizes, len(allTables))
	require.NoError(t, store.Close())

	// Roll everything back
	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, 0))
}

func TestMigrate_NoneBackend(t *testing.T) {
	assert.Error(t, Migrate(schema.NoneBackend, "", -1))
}
