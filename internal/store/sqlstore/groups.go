package sqlstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/teshtvele/groups-management/internal/model"
)

type groups struct{ c conn }

func (r *groups) Create(ctx context.Context) (*model.PersonGroup, error) {
	var out model.PersonGroup
	row := r.c.queryRow(ctx, `INSERT INTO person_group DEFAULT VALUES RETURNING id`)
	if err := row.Scan(&out.ID); err != nil {
		return nil, errors.Wrap(err, "insert person_group")
	}
	return &out, nil
}

func (r *groups) Get(ctx context.Context, id int64) (*model.PersonGroup, error) {
	var out model.PersonGroup
	row := r.c.queryRow(ctx, `SELECT id FROM person_group WHERE id = ?`, id)
	if err := row.Scan(&out.ID); err != nil {
		return nil, wrapNoRows(err, "get person_group")
	}
	return &out, nil
}

func (r *groups) List(ctx context.Context, limit, offset int) ([]*model.GroupSummary, error) {
	q, args := limitOffset(`
        SELECT g.id, count(p.id), min(p.created_at), max(p.created_at)
        FROM person_group g
        JOIN person p ON p.group_id = g.id
        GROUP BY g.id
        ORDER BY g.id`, nil, limit, offset)
	rows, err := r.c.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list person_group")
	}
	defer rows.Close()

	var out []*model.GroupSummary
	for rows.Next() {
		var (
			g           model.GroupSummary
			first, last dbTime
		)
		if err := rows.Scan(&g.ID, &g.MemberCount, &first, &last); err != nil {
			return nil, errors.Wrap(err, "scan person_group")
		}
		g.FirstCreatedAt, g.LastCreatedAt = first.Time, last.Time
		out = append(out, &g)
	}
	return out, errors.Wrap(rows.Err(), "iterate person_group")
}
