// Package sqlstore implements store.Store over database/sql. The postgres and
// sqlite packages supply the connection and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// ContainsFold renders a case-insensitive substring test of column against
	// the bind parameter param, which carries an escaped LIKE fragment.
	ContainsFold func(column, param string) string
	// LockMatchKey takes a transaction-scoped exclusive lock on key.
	LockMatchKey func(ctx context.Context, tx *sql.Tx, key string) error
	TxOptions    *sql.TxOptions
}

// DollarPlaceholder renders $1, $2, ...
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// QuestionPlaceholder renders ? for every parameter.
func QuestionPlaceholder(int) string { return "?" }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a querier to a dialect and rewrites ? placeholders.
type conn struct {
	q querier
	d *Dialect
}

func (c conn) rebind(query string) string {
	if c.d.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(c.d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

func (c conn) repos() repos {
	return repos{
		changeSets: &changeSets{c},
		groups:     &groups{c},
		persons:    &persons{c},
		history:    &history{c},
	}
}

type repos struct {
	changeSets *changeSets
	groups     *groups
	persons    *persons
	history    *history
}

func (r repos) ChangeSets() store.ChangeSets { return r.changeSets }
func (r repos) Groups() store.Groups         { return r.groups }
func (r repos) Persons() store.Persons       { return r.persons }
func (r repos) History() store.History       { return r.history }

// New constructs a store over db using dialect d.
func New(db *sql.DB, d *Dialect) *Store {
	return &Store{repos: conn{q: db, d: d}.repos(), db: db, d: d}
}

// Store is the database/sql implementation of store.Store.
type Store struct {
	repos
	db *sql.DB
	d  *Dialect
}

var _ store.Store = (*Store)(nil)

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn in a transaction and commits when it returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.d.TxOptions)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = sqlTx.Rollback() }()

	t := &tx{repos: conn{q: sqlTx, d: s.d}.repos(), tx: sqlTx, d: s.d}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "commit transaction")
}

type tx struct {
	repos
	tx *sql.Tx
	d  *Dialect
}

func (t *tx) LockMatchKey(ctx context.Context, key string) error {
	if t.d.LockMatchKey == nil {
		return nil
	}
	return errors.Wrap(t.d.LockMatchKey(ctx, t.tx, key), "lock match key")
}

// wrapNoRows maps sql.ErrNoRows to model.ErrNotFound.
func wrapNoRows(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(model.ErrNotFound, msg)
	}
	return errors.Wrap(err, msg)
}

// likeFragment escapes LIKE metacharacters in s.
func likeFragment(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// limitOffset appends LIMIT/OFFSET clauses; limit <= 0 means unbounded.
func limitOffset(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
