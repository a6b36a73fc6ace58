package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/teshtvele/groups-management/internal/core/person"
	"github.com/teshtvele/groups-management/internal/metrics"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
	tu "github.com/teshtvele/groups-management/internal/testutil"
)

var epoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func sp(s string) *string { return &s }

func candidate(last, first string, g model.Gender, addr string, phone, email *string) model.PersonInput {
	return model.PersonInput{
		LastName:  last,
		FirstName: first,
		BirthDate: time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC),
		Gender:    g,
		Address:   addr,
		Phone:     phone,
		Email:     email,
	}
}

type fixture struct {
	store     store.Store
	clock     *tu.StubClock
	persons   *PersonService
	timeline  *TimelineService
	changeSet *ChangeSetService
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, clock *tu.StubClock, extra ...Option) *fixture {
	t.Helper()
	st := tu.NewSQLiteStore(t)
	m := metrics.New(prometheus.NewRegistry())
	opts := append([]Option{WithClock(clock), WithMetrics(m)}, extra...)
	return &fixture{
		store:     st,
		clock:     clock,
		persons:   NewPersonService(st, opts...),
		timeline:  NewTimelineService(st, opts...),
		changeSet: NewChangeSetService(st, opts...),
		metrics:   m,
	}
}

func TestCreatePerson_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Minute))

	a, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", sp("+7(123)456-78-90"), nil), nil)
	require.NoError(t, err)
	assert.True(t, a.IsCurrent)
	require.NotNil(t, a.ChangeID)

	b, err := f.persons.CreatePerson(ctx, candidate("Петров", "Иван", model.GenderMale, "Addr1", nil, nil), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.GroupID, b.GroupID, "male surname mismatch must open a new group")

	c, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr2", sp("8 (123) 456-78-90"), nil), nil)
	require.NoError(t, err)
	assert.Equal(t, a.GroupID, c.GroupID, "name and phone match joins the first group")
	assert.Equal(t, "+7(123)456-78-90", *c.Phone)

	hist, err := f.store.History().ListByGroup(ctx, a.GroupID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	h := hist[0].History
	assert.Equal(t, "Addr1", h.Address)
	assert.True(t, h.ValidFrom.Equal(a.CreatedAt))
	assert.True(t, h.ValidTo.Equal(c.CreatedAt))
	require.NotNil(t, h.ChangeID)
	assert.Equal(t, *c.ChangeID, *h.ChangeID)

	none, err := f.store.History().ListByGroup(ctx, b.GroupID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	groups, err := f.timeline.ListGroups(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].MemberCount)
	assert.Equal(t, 1, groups[1].MemberCount)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PersonsCreated.WithLabelValues(metrics.OutcomeMatched)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.PersonsCreated.WithLabelValues(metrics.OutcomeNewGroup)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HistoryArchived))
}

func TestCreatePerson_DefaultChangeSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	p, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", nil, nil), nil)
	require.NoError(t, err)
	cs, err := f.changeSet.Get(ctx, *p.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, DefaultWriteAuthor, *cs.Author)
	assert.Equal(t, DefaultWriteReason, *cs.Reason)
	assert.True(t, cs.AuthoredAt.Equal(p.CreatedAt))
}

func TestCreatePerson_AuthorAndReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	p, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", nil, nil),
		&ChangeSetRef{Author: "operator", Reason: "import batch 7"})
	require.NoError(t, err)
	cs, err := f.changeSet.Get(ctx, *p.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, "operator", *cs.Author)
	assert.Equal(t, "import batch 7", *cs.Reason)
}

func TestCreatePerson_ExistingChangeSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	cs, err := f.changeSet.CreateChangeSet(ctx, "alice", "merge")
	require.NoError(t, err)

	a, err := f.persons.CreatePerson(ctx, candidate("Иванова", "Мария", model.GenderFemale, "Addr1", nil, nil), &ChangeSetRef{ID: &cs.ID})
	require.NoError(t, err)
	b, err := f.persons.CreatePerson(ctx, candidate("Петрова", "Мария", model.GenderFemale, "Addr1", nil, nil), &ChangeSetRef{ID: &cs.ID})
	require.NoError(t, err)
	assert.Equal(t, a.GroupID, b.GroupID, "female surname change keeps the group")
	assert.Equal(t, cs.ID, *a.ChangeID)
	assert.Equal(t, cs.ID, *b.ChangeID)

	list, err := f.changeSet.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ChangesCount)

	details, err := f.changeSet.Details(ctx, cs.ID)
	require.NoError(t, err)
	require.Len(t, details.Changes, 1)
	assert.Equal(t, "Иванова Мария", details.Changes[0].FullName)
	assert.True(t, details.Changes[0].ValidTo.Equal(b.CreatedAt))
}

func TestCreatePerson_UnknownChangeSetWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	missing := int64(999)
	_, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", nil, nil), &ChangeSetRef{ID: &missing})
	require.Error(t, err)
	assert.True(t, person.IsNotFoundError(err))
	assert.ErrorIs(t, err, model.ErrNotFound)

	groups, err := f.store.Groups().List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, groups)
	persons, err := f.persons.ListPersons(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, persons)
}

func TestCreatePerson_ValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	in := candidate("ivanov", "Иван", model.GenderMale, " ", sp("12345"), sp("x@y"))
	_, err := f.persons.CreatePerson(ctx, in, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)

	fields := map[string]bool{}
	for _, ve := range person.ValidationFailures(err) {
		fields[ve.Field] = true
	}
	assert.Equal(t, map[string]bool{"last_name": true, "address": true, "phone": true, "email": true}, fields)

	changeSets, err := f.changeSet.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, changeSets)
	groups, err := f.timeline.ListGroups(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreateFailures.WithLabelValues("validation")))
}

func TestCreatePerson_ClockNotAdvancingIsInconsistent(t *testing.T) {
	ctx := context.Background()
	clock := tu.NewStubClock(epoch)
	f := newFixture(t, clock)

	first, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", nil, nil), nil)
	require.NoError(t, err)

	_, err = f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", sp("89991234567"), nil), nil)
	require.Error(t, err)
	assert.True(t, person.IsConsistencyError(err))
	assert.ErrorIs(t, err, model.ErrConsistency)

	persons, err := f.persons.ListPersons(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, first.ID, persons[0].ID)
	changeSets, err := f.changeSet.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, changeSets, 1, "the rolled back write must not leave its changeset")

	clock.Advance(time.Second)
	_, err = f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", model.GenderMale, "Addr1", sp("89991234567"), nil), nil)
	require.NoError(t, err)
}

func TestCreatePerson_HistoryIsGapFree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, 90*time.Second))

	const writes = 5
	var created []*model.Person
	for i := 0; i < writes; i++ {
		p, err := f.persons.CreatePerson(ctx,
			candidate("Смирнов", "Олег", model.GenderMale, fmt.Sprintf("ул. Ленина, %d", i), sp("+79990000001"), nil), nil)
		require.NoError(t, err)
		created = append(created, p)
	}
	for _, p := range created[1:] {
		require.Equal(t, created[0].GroupID, p.GroupID)
	}

	assertGapFree(t, f.store, created[0].GroupID, writes, created[0].CreatedAt, created[writes-1].CreatedAt)
}

func TestCreatePerson_ConcurrentWritesShareOneGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Millisecond))

	const writers = 8
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			_, err := f.persons.CreatePerson(ctx,
				candidate("Кузнецов", "Пётр", model.GenderMale, fmt.Sprintf("Addr%d", i), sp("+7 900 000 00 00"), nil), nil)
			return err
		})
	}
	require.NoError(t, g.Wait())

	groups, err := f.timeline.ListGroups(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, writers, groups[0].MemberCount)

	assertGapFree(t, f.store, groups[0].ID, writers, groups[0].FirstCreatedAt, groups[0].LastCreatedAt)
}

// assertGapFree checks that a group with n writes has n-1 history intervals tiling
// [first, last) without overlap.
func assertGapFree(t *testing.T, st store.Store, groupID int64, n int, first, last time.Time) {
	t.Helper()
	rows, err := st.History().ListByGroup(context.Background(), groupID, 0)
	require.NoError(t, err)
	require.Len(t, rows, n-1)

	sort.Slice(rows, func(i, j int) bool { return rows[i].History.ValidFrom.Before(rows[j].History.ValidFrom) })
	assert.True(t, rows[0].History.ValidFrom.Equal(first), "first interval starts at the first write")
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].History.ValidTo.Equal(rows[i].History.ValidFrom), "interval %d leaves a gap or overlaps", i)
	}
	assert.True(t, rows[len(rows)-1].History.ValidTo.Equal(last), "last interval ends at the newest write")
}

func TestFindMatchingGroup_SmallestGroupWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	g1, err := f.persons.CreatePerson(ctx, candidate("Иванова", "Мария", model.GenderFemale, "Addr1", nil, nil), nil)
	require.NoError(t, err)
	g2, err := f.persons.CreatePerson(ctx, candidate("Петрова", "Мария", model.GenderFemale, "Addr2", sp("+79995550000"), nil), nil)
	require.NoError(t, err)
	require.NotEqual(t, g1.GroupID, g2.GroupID)

	probe := candidate("Сидорова", "Мария", model.GenderFemale, "Addr1", sp("89995550000"), nil)
	for i := 0; i < 3; i++ {
		id, found, err := f.persons.FindMatchingGroup(ctx, probe)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, g1.GroupID, id)
	}

	_, found, err := f.persons.FindMatchingGroup(ctx, candidate("Сидорова", "Анна", model.GenderFemale, "Addr1", nil, nil))
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = f.persons.FindMatchingGroup(ctx, candidate("Сидорова", "Анна", "X", "Addr1", nil, nil))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGetPerson(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second))

	p, err := f.persons.CreatePerson(ctx, candidate("Иванов", "Иван", "М", "Addr1", nil, sp("ivan@mail.ru")), nil)
	require.NoError(t, err)
	assert.Equal(t, model.GenderMale, p.Gender)

	got, err := f.persons.GetPerson(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivan@mail.ru", *got.Email)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

	_, err = f.persons.GetPerson(ctx, p.ID+100)
	assert.True(t, person.IsNotFoundError(err))
}

func TestSearchPersons(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tu.NewTickingClock(epoch, time.Second), WithSearchLimits(2, 3))

	for _, in := range []model.PersonInput{
		candidate("Иванов", "Иван", model.GenderMale, "Москва, Тверская 1", sp("89991234567"), nil),
		candidate("Иванова", "Анна", model.GenderFemale, "Москва, Арбат 2", nil, sp("anna@mail.ru")),
		candidate("Петров", "Пётр", model.GenderMale, "Казань, Баумана 3", sp("+7 912 000 11 22"), nil),
		candidate("Сидоров", "Иван", model.GenderMale, "Москва, Тверская 5", nil, nil),
	} {
		_, err := f.persons.CreatePerson(ctx, in, nil)
		require.NoError(t, err)
	}

	got, err := f.persons.SearchPersons(ctx, model.SearchFilter{LastName: "иванов", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{Phone: "+7 (999) 123-45-67"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Иванов", got[0].LastName)

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{Phone: "912"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Петров", got[0].LastName)

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{FirstName: "Иван", Address: "тверская"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{Address: "Москва"})
	require.NoError(t, err)
	assert.Len(t, got, 2, "default page size applies")

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{Address: "а", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, got, 3, "page size is capped")

	got, err = f.persons.SearchPersons(ctx, model.SearchFilter{Address: "Москва", Limit: 3, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
