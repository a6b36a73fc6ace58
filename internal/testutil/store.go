// Package testutil provides deterministic collaborators for service and handler tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/teshtvele/groups-management/internal/migrations"
	"github.com/teshtvele/groups-management/internal/store"
	"github.com/teshtvele/groups-management/internal/store/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a per-test temp directory and
// closes it on cleanup.
func NewSQLiteStore(t testing.TB) store.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrations.Up(db, migrations.DriverSQLite); err != nil {
		_ = db.Close()
		t.Fatalf("migrate sqlite: %v", err)
	}
	s := sqlite.NewWithDB(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
