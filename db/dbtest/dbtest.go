// Package dbtest opens throwaway migrated sqlite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"leaddesk/db"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"
)

// New returns a migrated database stored under t.TempDir, closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}
