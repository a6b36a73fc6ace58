package sqlstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/teshtvele/groups-management/internal/model"
)

type changeSets struct{ c conn }

func (r *changeSets) Create(ctx context.Context, cs *model.ChangeSet) (*model.ChangeSet, error) {
	out := *cs
	out.AuthoredAt = bindTime(cs.AuthoredAt)
	row := r.c.queryRow(ctx, `
        INSERT INTO change_set (authored_at, author, reason)
        VALUES (?, ?, ?)
        RETURNING id
    `, out.AuthoredAt, nullableString(cs.Author), nullableString(cs.Reason))
	if err := row.Scan(&out.ID); err != nil {
		return nil, errors.Wrap(err, "insert change_set")
	}
	return &out, nil
}

func (r *changeSets) Get(ctx context.Context, id int64) (*model.ChangeSet, error) {
	var (
		out        model.ChangeSet
		authoredAt dbTime
	)
	row := r.c.queryRow(ctx, `
        SELECT id, authored_at, author, reason FROM change_set WHERE id = ?
    `, id)
	if err := row.Scan(&out.ID, &authoredAt, &out.Author, &out.Reason); err != nil {
		return nil, wrapNoRows(err, "get change_set")
	}
	out.AuthoredAt = authoredAt.Time
	return &out, nil
}

func (r *changeSets) List(ctx context.Context, limit int) ([]*model.ChangeSetSummary, error) {
	q, args := limitOffset(`
        SELECT c.id, c.authored_at, c.author, c.reason,
               (SELECT count(*) FROM person p WHERE p.change_id = c.id)
        FROM change_set c
        ORDER BY c.authored_at DESC, c.id DESC`, nil, limit, 0)
	rows, err := r.c.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list change_set")
	}
	defer rows.Close()

	var out []*model.ChangeSetSummary
	for rows.Next() {
		var (
			s          model.ChangeSetSummary
			authoredAt dbTime
		)
		if err := rows.Scan(&s.ID, &authoredAt, &s.Author, &s.Reason, &s.ChangesCount); err != nil {
			return nil, errors.Wrap(err, "scan change_set")
		}
		s.AuthoredAt = authoredAt.Time
		out = append(out, &s)
	}
	return out, errors.Wrap(rows.Err(), "iterate change_set")
}
