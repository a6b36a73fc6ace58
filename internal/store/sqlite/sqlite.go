// Package sqlite backs the registry with an embedded SQLite database for local
// runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	msqlite "modernc.org/sqlite"

	"github.com/teshtvele/groups-management/internal/store/sqlstore"
)

var registerOnce sync.Once
var registerErr error

// registerFunctions adds ulower, a Unicode-aware lower(); the built-in one only
// folds ASCII, which breaks case-insensitive search on Cyrillic names.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = msqlite.RegisterDeterministicScalarFunction("ulower", 1,
			func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return registerErr
}

// Open opens (or creates) a SQLite database at the given path with WAL journaling,
// foreign keys and immediate write transactions.
func Open(path string) (*sql.DB, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: every transaction owns the database until it ends.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Dialect uses ? placeholders and ulower for case folding. Write transactions
// begin IMMEDIATE and the pool holds one connection, so match-key locking needs
// no extra statement.
var Dialect = &sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: sqlstore.QuestionPlaceholder,
	ContainsFold: func(column, param string) string {
		return `ulower(` + column + `) LIKE '%' || ulower(` + param + `) || '%' ESCAPE '\'`
	},
	LockMatchKey: func(context.Context, *sql.Tx, string) error { return nil },
}

// NewWithDB constructs a SQLite-backed store over an open connection.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect) }
