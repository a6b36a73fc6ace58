package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/teshtvele/groups-management/internal/model"
)

type persons struct{ c conn }

func (r *persons) Insert(ctx context.Context, p *model.Person) (*model.Person, error) {
	out := *p
	out.CreatedAt = bindTime(p.CreatedAt)
	out.BirthDate = bindDate(p.BirthDate)
	row := r.c.queryRow(ctx, `
        INSERT INTO person (group_id, change_id, last_name, first_name, middle_name, birth_date,
                            gender, address, phone, email, created_at, is_current)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, p.GroupID, nullableInt(p.ChangeID), p.LastName, p.FirstName, nullableString(p.MiddleName), out.BirthDate,
		string(p.Gender), p.Address, nullableString(p.Phone), nullableString(p.Email), out.CreatedAt, p.IsCurrent)
	if err := row.Scan(&out.ID); err != nil {
		return nil, errors.Wrap(err, "insert person")
	}
	return &out, nil
}

func (r *persons) Get(ctx context.Context, id int64) (*model.Person, error) {
	p, err := scanPerson(r.c.queryRow(ctx, `SELECT `+personColumns+` FROM person WHERE id = ?`, id))
	if err != nil {
		return nil, wrapNoRows(err, "get person")
	}
	return p, nil
}

func (r *persons) MatchCandidates(ctx context.Context, gender model.Gender, firstName string) ([]*model.Person, error) {
	return r.list(ctx, "match candidates", `
        SELECT `+personColumns+` FROM person
        WHERE gender = ? AND first_name = ?
        ORDER BY group_id, id`, string(gender), firstName)
}

func (r *persons) Latest(ctx context.Context, groupID, excludeID int64) (*model.Person, error) {
	p, err := scanPerson(r.c.queryRow(ctx, `
        SELECT `+personColumns+` FROM person
        WHERE group_id = ? AND id <> ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1`, groupID, excludeID))
	if err != nil {
		return nil, wrapNoRows(err, "latest person")
	}
	return p, nil
}

func (r *persons) LatestAsOf(ctx context.Context, groupID int64, at time.Time) (*model.Person, error) {
	p, err := scanPerson(r.c.queryRow(ctx, `
        SELECT `+personColumns+` FROM person
        WHERE group_id = ? AND created_at <= ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1`, groupID, bindTime(at)))
	if err != nil {
		return nil, wrapNoRows(err, "person as of")
	}
	return p, nil
}

func (r *persons) ListRecent(ctx context.Context, limit, offset int) ([]*model.Person, error) {
	q, args := limitOffset(`SELECT `+personColumns+` FROM person ORDER BY created_at DESC, id DESC`, nil, limit, offset)
	return r.list(ctx, "list persons", q, args...)
}

func (r *persons) Search(ctx context.Context, f model.SearchFilter) ([]*model.Person, error) {
	var (
		where []string
		args  []any
	)
	contains := func(column, value string) {
		if value == "" {
			return
		}
		where = append(where, r.c.d.ContainsFold(column, "?"))
		args = append(args, likeFragment(value))
	}
	contains("last_name", f.LastName)
	contains("first_name", f.FirstName)
	contains("middle_name", f.MiddleName)
	contains("address", f.Address)
	contains("email", f.Email)
	contains("phone", f.PhoneContains)
	if f.Phone != "" {
		where = append(where, "phone = ?")
		args = append(args, f.Phone)
	}

	q := `SELECT ` + personColumns + ` FROM person`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY group_id, id"
	q, args = limitOffset(q, args, f.Limit, f.Offset)
	return r.list(ctx, "search persons", q, args...)
}

func (r *persons) list(ctx context.Context, op, query string, args ...any) ([]*model.Person, error) {
	rows, err := r.c.query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()
	return collect(rows, op, scanPerson)
}

func collect[T any](rows *sql.Rows, op string, scan func(rowScanner) (*T, error)) ([]*T, error) {
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		out = append(out, v)
	}
	return out, errors.Wrap(rows.Err(), op)
}
