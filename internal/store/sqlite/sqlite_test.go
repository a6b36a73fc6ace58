package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/teshtvele/groups-management/internal/migrations"
	"github.com/teshtvele/groups-management/internal/store"
	"github.com/teshtvele/groups-management/internal/store/storetest"
)

func makeSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrations.Up(db, migrations.DriverSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	s := NewWithDB(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, makeSQLiteStore)
}

func TestULower_FoldsCyrillic(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fold.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	var got string
	if err := db.QueryRow(`SELECT ulower('ИВАНОВ Ёлкин')`).Scan(&got); err != nil {
		t.Fatalf("ulower: %v", err)
	}
	if got != "иванов ёлкин" {
		t.Fatalf("ulower: got %q", got)
	}
}
