// Package catalogtest opens migrated throwaway catalog databases for tests.
package catalogtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/catalog/migrations"
	"github.com/dmitrijs2005/closetsync/internal/dbx"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// SQLiteDSN returns the DSN used for a catalog file at path.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLite returns a migrated SQLite database in the test's temp dir.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, dbx.DialectSQLite))
	return db
}

// SeedUser inserts a bare user row so foreign keys hold.
func SeedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, '', ?)`,
		id, id, id+"@example.test", time.Now().UTC())
	require.NoError(t, err)
}
