package sqlstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/teshtvele/groups-management/internal/model"
)

type history struct{ c conn }

const historyJoin = `SELECT ` + historyColumns + `, c.id, c.authored_at, c.author, c.reason
        FROM person_history h
        LEFT JOIN change_set c ON c.id = h.change_id`

func (r *history) Insert(ctx context.Context, h *model.PersonHistory) (*model.PersonHistory, error) {
	out := *h
	out.ValidFrom = bindTime(h.ValidFrom)
	out.ValidTo = bindTime(h.ValidTo)
	out.BirthDate = bindDate(h.BirthDate)
	row := r.c.queryRow(ctx, `
        INSERT INTO person_history (group_id, change_id, last_name, first_name, middle_name, birth_date,
                                    gender, address, phone, email, valid_from, valid_to)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `, h.GroupID, nullableInt(h.ChangeID), h.LastName, h.FirstName, nullableString(h.MiddleName), out.BirthDate,
		string(h.Gender), h.Address, nullableString(h.Phone), nullableString(h.Email), out.ValidFrom, out.ValidTo)
	if err := row.Scan(&out.ID); err != nil {
		return nil, errors.Wrap(err, "insert person_history")
	}
	return &out, nil
}

func (r *history) Latest(ctx context.Context, groupID int64) (*model.PersonHistory, error) {
	h, err := scanHistory(r.c.queryRow(ctx, `
        SELECT `+historyColumns+` FROM person_history h
        WHERE h.group_id = ?
        ORDER BY h.valid_to DESC, h.id DESC
        LIMIT 1`, groupID))
	if err != nil {
		return nil, wrapNoRows(err, "latest person_history")
	}
	return h, nil
}

func (r *history) ActiveAt(ctx context.Context, groupID int64, at time.Time) (*model.HistoryWithChange, error) {
	t := bindTime(at)
	h, err := scanHistoryWithChange(r.c.queryRow(ctx, historyJoin+`
        WHERE h.group_id = ? AND h.valid_from <= ? AND h.valid_to > ?
        ORDER BY h.valid_from DESC, h.id DESC
        LIMIT 1`, groupID, t, t))
	if err != nil {
		return nil, wrapNoRows(err, "person_history active at")
	}
	return h, nil
}

func (r *history) ListByGroup(ctx context.Context, groupID int64, limit int) ([]*model.HistoryWithChange, error) {
	q, args := limitOffset(historyJoin+`
        WHERE h.group_id = ?
        ORDER BY h.valid_from DESC, h.id DESC`, []any{groupID}, limit, 0)
	rows, err := r.c.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list person_history by group")
	}
	defer rows.Close()
	return collect(rows, "list person_history by group", scanHistoryWithChange)
}

func (r *history) ListByChange(ctx context.Context, changeID int64) ([]*model.PersonHistory, error) {
	rows, err := r.c.query(ctx, `
        SELECT `+historyColumns+` FROM person_history h
        WHERE h.change_id = ?
        ORDER BY h.group_id, h.valid_from, h.id`, changeID)
	if err != nil {
		return nil, errors.Wrap(err, "list person_history by change")
	}
	defer rows.Close()
	return collect(rows, "list person_history by change", scanHistory)
}
