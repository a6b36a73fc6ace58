package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teshtvele/groups-management/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Dialect renders $n placeholders, folds case with ILIKE and serialises writers
// for one match key with a transaction-scoped advisory lock.
var Dialect = &sqlstore.Dialect{
	Name:        "postgres",
	Placeholder: sqlstore.DollarPlaceholder,
	ContainsFold: func(column, param string) string {
		return column + ` ILIKE '%' || ` + param + `::text || '%' ESCAPE '\'`
	},
	LockMatchKey: func(ctx context.Context, tx *sql.Tx, key string) error {
		_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, key)
		return err
	},
	TxOptions: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
}

// NewWithDB constructs a Postgres-backed store over an open connection.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, Dialect) }
