package sqlstore

import (
	"fmt"
	"time"

	"github.com/teshtvele/groups-management/internal/model"
)

// timeLayouts covers what the drivers hand back for DATE/TIMESTAMP columns and
// for aggregates, which SQLite returns as text.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// dbTime scans a timestamp from either a native time or its text form.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

func (t dbTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// bindTime normalises timestamps before they reach the driver so text-backed
// stores compare them in one zone.
func bindTime(t time.Time) time.Time { return t.UTC() }

// bindDate strips the clock from a calendar date.
func bindDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const personColumns = `id, group_id, change_id, last_name, first_name, middle_name, birth_date,
	gender, address, phone, email, created_at, is_current`

func scanPerson(row rowScanner) (*model.Person, error) {
	var (
		p         model.Person
		groupID   *int64
		gender    string
		birth     dbTime
		createdAt dbTime
	)
	if err := row.Scan(&p.ID, &groupID, &p.ChangeID, &p.LastName, &p.FirstName, &p.MiddleName,
		&birth, &gender, &p.Address, &p.Phone, &p.Email, &createdAt, &p.IsCurrent); err != nil {
		return nil, err
	}
	if groupID != nil {
		p.GroupID = *groupID
	}
	p.Gender = model.Gender(gender)
	p.BirthDate = birth.Time
	p.CreatedAt = createdAt.Time
	return &p, nil
}

const historyColumns = `h.id, h.group_id, h.change_id, h.last_name, h.first_name, h.middle_name, h.birth_date,
	h.gender, h.address, h.phone, h.email, h.valid_from, h.valid_to`

func historyDest(h *model.PersonHistory, gender *string, birth, from, to *dbTime) []any {
	return []any{&h.ID, &h.GroupID, &h.ChangeID, &h.LastName, &h.FirstName, &h.MiddleName,
		birth, gender, &h.Address, &h.Phone, &h.Email, from, to}
}

func scanHistory(row rowScanner) (*model.PersonHistory, error) {
	var (
		h               model.PersonHistory
		gender          string
		birth, from, to dbTime
	)
	if err := row.Scan(historyDest(&h, &gender, &birth, &from, &to)...); err != nil {
		return nil, err
	}
	h.Gender = model.Gender(gender)
	h.BirthDate, h.ValidFrom, h.ValidTo = birth.Time, from.Time, to.Time
	return &h, nil
}

// scanHistoryWithChange reads history columns followed by c.id, c.authored_at,
// c.author, c.reason from a LEFT JOIN on change_set.
func scanHistoryWithChange(row rowScanner) (*model.HistoryWithChange, error) {
	var (
		out                model.HistoryWithChange
		gender             string
		birth, from, to    dbTime
		csID               *int64
		csAuthoredAt       dbTime
		csAuthor, csReason *string
	)
	dest := historyDest(&out.History, &gender, &birth, &from, &to)
	dest = append(dest, &csID, &csAuthoredAt, &csAuthor, &csReason)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	out.History.Gender = model.Gender(gender)
	out.History.BirthDate, out.History.ValidFrom, out.History.ValidTo = birth.Time, from.Time, to.Time
	if csID != nil {
		out.ChangeSet = &model.ChangeSet{ID: *csID, AuthoredAt: csAuthoredAt.Time, Author: csAuthor, Reason: csReason}
	}
	return &out, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
