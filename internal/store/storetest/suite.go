package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a freshly migrated, empty store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Ledger
	author, reason := "alice", "import"
	cs, err := s.ChangeSets().Create(ctx, &model.ChangeSet{AuthoredAt: base, Author: &author, Reason: &reason})
	if err != nil {
		t.Fatalf("CreateChangeSet: %v", err)
	}
	if cs.ID == 0 {
		t.Fatalf("CreateChangeSet: empty id")
	}
	got, err := s.ChangeSets().Get(ctx, cs.ID)
	if err != nil || got.Author == nil || *got.Author != "alice" || !got.AuthoredAt.Equal(base) {
		t.Fatalf("GetChangeSet: got=%+v err=%v", got, err)
	}
	if _, err := s.ChangeSets().Get(ctx, cs.ID+1000); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetChangeSet missing: want ErrNotFound, got %v", err)
	}
	cs2, err := s.ChangeSets().Create(ctx, &model.ChangeSet{AuthoredAt: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("CreateChangeSet without author: %v", err)
	}

	// Groups
	g, err := s.Groups().Create(ctx)
	if err != nil || g.ID == 0 {
		t.Fatalf("CreateGroup: got=%v err=%v", g, err)
	}
	if _, err := s.Groups().Get(ctx, g.ID); err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if _, err := s.Groups().Get(ctx, g.ID+1000); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetGroup missing: want ErrNotFound, got %v", err)
	}

	// Persons
	phone := "+7(123)456-78-90"
	email := "ivan@mail.ru"
	p1, err := s.Persons().Insert(ctx, &model.Person{
		GroupID: g.ID, ChangeID: &cs.ID, LastName: "Иванов", FirstName: "Иван",
		BirthDate: time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC), Gender: model.GenderMale,
		Address: "Москва, Тверская 1", Phone: &phone, CreatedAt: base, IsCurrent: true,
	})
	if err != nil || p1.ID == 0 {
		t.Fatalf("InsertPerson: got=%v err=%v", p1, err)
	}
	p2, err := s.Persons().Insert(ctx, &model.Person{
		GroupID: g.ID, ChangeID: &cs2.ID, LastName: "Иванов", FirstName: "Иван",
		BirthDate: time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC), Gender: model.GenderMale,
		Address: "Москва, Арбат 5_%", Phone: &phone, Email: &email, CreatedAt: base.Add(time.Hour), IsCurrent: true,
	})
	if err != nil {
		t.Fatalf("InsertPerson second: %v", err)
	}
	g2, err := s.Groups().Create(ctx)
	if err != nil {
		t.Fatalf("CreateGroup second: %v", err)
	}
	middle := "Петровна"
	p3, err := s.Persons().Insert(ctx, &model.Person{
		GroupID: g2.ID, LastName: "Сидорова", FirstName: "Анна", MiddleName: &middle,
		BirthDate: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC), Gender: model.GenderFemale,
		Address: "Казань", CreatedAt: base.Add(2 * time.Hour), IsCurrent: true,
	})
	if err != nil {
		t.Fatalf("InsertPerson third: %v", err)
	}

	gp, err := s.Persons().Get(ctx, p2.ID)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if gp.GroupID != g.ID || gp.Email == nil || *gp.Email != email || gp.MiddleName != nil ||
		gp.Gender != model.GenderMale || !gp.CreatedAt.Equal(base.Add(time.Hour)) || !gp.IsCurrent {
		t.Fatalf("GetPerson: unexpected row %+v", gp)
	}
	if y, m, d := gp.BirthDate.Date(); y != 1980 || m != time.May || d != 1 {
		t.Fatalf("GetPerson: birth date %v", gp.BirthDate)
	}
	if _, err := s.Persons().Get(ctx, p3.ID+1000); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetPerson missing: want ErrNotFound, got %v", err)
	}

	cands, err := s.Persons().MatchCandidates(ctx, model.GenderMale, "Иван")
	if err != nil || len(cands) != 2 {
		t.Fatalf("MatchCandidates: n=%d err=%v", len(cands), err)
	}
	if cands, _ := s.Persons().MatchCandidates(ctx, model.GenderFemale, "Иван"); len(cands) != 0 {
		t.Fatalf("MatchCandidates gender filter: n=%d", len(cands))
	}

	latest, err := s.Persons().Latest(ctx, g.ID, p2.ID)
	if err != nil || latest.ID != p1.ID {
		t.Fatalf("Latest excluding newest: got=%v err=%v", latest, err)
	}
	if _, err := s.Persons().Latest(ctx, g2.ID, p3.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest single row: want ErrNotFound, got %v", err)
	}

	asOf, err := s.Persons().LatestAsOf(ctx, g.ID, base.Add(30*time.Minute))
	if err != nil || asOf.ID != p1.ID {
		t.Fatalf("LatestAsOf mid: got=%v err=%v", asOf, err)
	}
	asOf, err = s.Persons().LatestAsOf(ctx, g.ID, base.Add(time.Hour))
	if err != nil || asOf.ID != p2.ID {
		t.Fatalf("LatestAsOf boundary: got=%v err=%v", asOf, err)
	}
	if _, err := s.Persons().LatestAsOf(ctx, g.ID, base.Add(-time.Second)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("LatestAsOf before: want ErrNotFound, got %v", err)
	}

	recent, err := s.Persons().ListRecent(ctx, 2, 0)
	if err != nil || len(recent) != 2 || recent[0].ID != p3.ID || recent[1].ID != p2.ID {
		t.Fatalf("ListRecent: got=%v err=%v", ids(recent), err)
	}
	recent, _ = s.Persons().ListRecent(ctx, 2, 2)
	if len(recent) != 1 || recent[0].ID != p1.ID {
		t.Fatalf("ListRecent offset: got=%v", ids(recent))
	}

	search := func(name string, f model.SearchFilter, want ...int64) {
		t.Helper()
		res, err := s.Persons().Search(ctx, f)
		if err != nil {
			t.Fatalf("Search %s: %v", name, err)
		}
		if got := ids(res); !equalIDs(got, want) {
			t.Fatalf("Search %s: got %v want %v", name, got, want)
		}
	}
	search("all", model.SearchFilter{Limit: 100}, p1.ID, p2.ID, p3.ID)
	search("last name fold", model.SearchFilter{LastName: "иван", Limit: 100}, p1.ID, p2.ID)
	search("first and last", model.SearchFilter{LastName: "Иван", FirstName: "анн", Limit: 100})
	search("middle", model.SearchFilter{MiddleName: "петр", Limit: 100}, p3.ID)
	search("address", model.SearchFilter{Address: "москва", Limit: 100}, p1.ID, p2.ID)
	search("literal underscore", model.SearchFilter{Address: "5_%", Limit: 100}, p2.ID)
	search("wildcard escaped", model.SearchFilter{Address: "_", Limit: 100}, p2.ID)
	search("email", model.SearchFilter{Email: "MAIL.RU", Limit: 100}, p2.ID)
	search("phone exact", model.SearchFilter{Phone: phone, Limit: 100}, p1.ID, p2.ID)
	search("phone contains", model.SearchFilter{PhoneContains: "456", Limit: 100}, p1.ID, p2.ID)
	search("paged", model.SearchFilter{Limit: 1, Offset: 1}, p2.ID)

	// History
	h1, err := s.History().Insert(ctx, &model.PersonHistory{
		GroupID: g.ID, ChangeID: &cs2.ID, LastName: p1.LastName, FirstName: p1.FirstName,
		BirthDate: p1.BirthDate, Gender: p1.Gender, Address: p1.Address, Phone: p1.Phone,
		ValidFrom: base, ValidTo: base.Add(time.Hour),
	})
	if err != nil || h1.ID == 0 {
		t.Fatalf("InsertHistory: got=%v err=%v", h1, err)
	}
	h2, err := s.History().Insert(ctx, &model.PersonHistory{
		GroupID: g.ID, LastName: p2.LastName, FirstName: p2.FirstName,
		BirthDate: p2.BirthDate, Gender: p2.Gender, Address: p2.Address,
		ValidFrom: base.Add(time.Hour), ValidTo: base.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("InsertHistory without change: %v", err)
	}

	hl, err := s.History().Latest(ctx, g.ID)
	if err != nil || hl.ID != h2.ID || !hl.ValidTo.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("LatestHistory: got=%+v err=%v", hl, err)
	}
	if _, err := s.History().Latest(ctx, g2.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("LatestHistory empty: want ErrNotFound, got %v", err)
	}

	act, err := s.History().ActiveAt(ctx, g.ID, base.Add(59*time.Minute))
	if err != nil || act.History.ID != h1.ID || act.ChangeSet == nil || act.ChangeSet.ID != cs2.ID {
		t.Fatalf("ActiveAt inside first: got=%+v err=%v", act, err)
	}
	act, err = s.History().ActiveAt(ctx, g.ID, base.Add(time.Hour))
	if err != nil || act.History.ID != h2.ID || act.ChangeSet != nil {
		t.Fatalf("ActiveAt boundary: got=%+v err=%v", act, err)
	}
	if _, err := s.History().ActiveAt(ctx, g.ID, base.Add(3*time.Hour)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ActiveAt at valid_to: want ErrNotFound, got %v", err)
	}

	byGroup, err := s.History().ListByGroup(ctx, g.ID, 0)
	if err != nil || len(byGroup) != 2 || byGroup[0].History.ID != h2.ID || byGroup[1].History.ID != h1.ID {
		t.Fatalf("ListByGroup: n=%d err=%v", len(byGroup), err)
	}
	if byGroup[1].ChangeSet == nil || byGroup[1].ChangeSet.Author != nil {
		t.Fatalf("ListByGroup: expected joined change set without author, got %+v", byGroup[1].ChangeSet)
	}
	if limited, _ := s.History().ListByGroup(ctx, g.ID, 1); len(limited) != 1 {
		t.Fatalf("ListByGroup limit: n=%d", len(limited))
	}

	byChange, err := s.History().ListByChange(ctx, cs2.ID)
	if err != nil || len(byChange) != 1 || byChange[0].ID != h1.ID {
		t.Fatalf("ListByChange: n=%d err=%v", len(byChange), err)
	}

	// Ledger summaries count person rows per changeset.
	sums, err := s.ChangeSets().List(ctx, 0)
	if err != nil || len(sums) != 2 {
		t.Fatalf("ListChangeSets: n=%d err=%v", len(sums), err)
	}
	if sums[0].ID != cs2.ID || sums[0].ChangesCount != 1 || sums[1].ID != cs.ID || sums[1].ChangesCount != 1 {
		t.Fatalf("ListChangeSets: unexpected %+v %+v", sums[0], sums[1])
	}
	if limited, _ := s.ChangeSets().List(ctx, 1); len(limited) != 1 {
		t.Fatalf("ListChangeSets limit: n=%d", len(limited))
	}

	// Group summaries
	gs, err := s.Groups().List(ctx, 10, 0)
	if err != nil || len(gs) != 2 {
		t.Fatalf("ListGroups: n=%d err=%v", len(gs), err)
	}
	if gs[0].ID != g.ID || gs[0].MemberCount != 2 || !gs[0].FirstCreatedAt.Equal(base) || !gs[0].LastCreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("ListGroups: unexpected %+v", gs[0])
	}

	// Transactions
	sentinel := errors.New("abort")
	var rolledBack int64
	err = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.LockMatchKey(ctx, "M|Иван"); err != nil {
			return err
		}
		ng, err := tx.Groups().Create(ctx)
		if err != nil {
			return err
		}
		rolledBack = ng.ID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx rollback: want sentinel, got %v", err)
	}
	if _, err := s.Groups().Get(ctx, rolledBack); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("WithTx rollback: group %d still visible (err=%v)", rolledBack, err)
	}

	var committed int64
	err = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		ng, err := tx.Groups().Create(ctx)
		if err != nil {
			return err
		}
		committed = ng.ID
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}
	if _, err := s.Groups().Get(ctx, committed); err != nil {
		t.Fatalf("WithTx commit not visible: %v", err)
	}
}

func ids(ps []*model.Person) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
