package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teshtvele/groups-management/internal/core/person"
	"github.com/teshtvele/groups-management/internal/metrics"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
)

// Attribution recorded when a person is written without a changeset.
const (
	DefaultWriteAuthor = "system"
	DefaultWriteReason = "API person creation"
)

// ChangeSetRef selects the changeset a write is attributed to: an existing one by
// ID, or a new one created in the same transaction from Author and Reason.
type ChangeSetRef struct {
	ID     *int64
	Author string
	Reason string
}

// PersonService owns the person write path and the read operations over current records.
type PersonService struct {
	store store.Store
	opts  options
}

func NewPersonService(s store.Store, opts ...Option) *PersonService {
	return &PersonService{store: s, opts: buildOptions(opts)}
}

// CreatePerson validates the candidate, resolves its group and records it as the
// group's newest version, archiving the previous version into history. The lock on
// the candidate's match key is held from the match scan until commit, so concurrent
// writes for the same identity are serialised. Nothing is written when any step fails.
func (s *PersonService) CreatePerson(ctx context.Context, in model.PersonInput, ref *ChangeSetRef) (*model.Person, error) {
	start := time.Now()
	defer s.opts.metrics.ObserveCreate(start)

	cand, err := person.Normalize(in)
	if err != nil {
		s.opts.metrics.IncCreateFailure(failureReason(err))
		return nil, err
	}

	var (
		created  *model.Person
		outcome  string
		archived bool
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		created, outcome, archived = nil, "", false

		if err := tx.LockMatchKey(ctx, person.MatchKey(cand.Gender, cand.FirstName)); err != nil {
			return err
		}
		now := s.opts.now()

		cs, err := resolveChangeSet(ctx, tx, ref, now)
		if err != nil {
			return err
		}

		groupID, matched, err := matchGroup(ctx, tx, cand)
		if err != nil {
			return err
		}
		s.opts.logger.Debug().
			Str("match_key", person.MatchKey(cand.Gender, cand.FirstName)).
			Bool("matched", matched).
			Int64("group_id", groupID).
			Msg("match decision")
		if matched {
			if _, err := tx.Groups().Get(ctx, groupID); err != nil {
				return err
			}
			outcome = metrics.OutcomeMatched
		} else {
			g, err := tx.Groups().Create(ctx)
			if err != nil {
				return err
			}
			groupID = g.ID
			outcome = metrics.OutcomeNewGroup
		}

		p, err := tx.Persons().Insert(ctx, &model.Person{
			GroupID:    groupID,
			ChangeID:   changeID(cs),
			LastName:   cand.LastName,
			FirstName:  cand.FirstName,
			MiddleName: cand.MiddleName,
			BirthDate:  cand.BirthDate,
			Gender:     cand.Gender,
			Address:    cand.Address,
			Phone:      cand.Phone,
			Email:      cand.Email,
			CreatedAt:  now,
			IsCurrent:  true,
		})
		if err != nil {
			return err
		}
		created = p

		prior, err := tx.Persons().Latest(ctx, groupID, p.ID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := checkTimeline(ctx, tx, prior, now); err != nil {
			return err
		}

		archiveChange := changeID(cs)
		if archiveChange == nil {
			archiveChange = prior.ChangeID
		}
		if _, err := tx.History().Insert(ctx, &model.PersonHistory{
			GroupID:    groupID,
			ChangeID:   archiveChange,
			LastName:   prior.LastName,
			FirstName:  prior.FirstName,
			MiddleName: prior.MiddleName,
			BirthDate:  prior.BirthDate,
			Gender:     prior.Gender,
			Address:    prior.Address,
			Phone:      prior.Phone,
			Email:      prior.Email,
			ValidFrom:  prior.CreatedAt,
			ValidTo:    now,
		}); err != nil {
			return err
		}
		archived = true
		return nil
	})
	if err != nil {
		reason := failureReason(err)
		s.opts.metrics.IncCreateFailure(reason)
		if reason == "store" || reason == "consistency" {
			s.opts.logger.Error().Stack().Err(err).Msg("person write failed")
		}
		return nil, err
	}

	s.opts.metrics.IncPersonCreated(outcome)
	if archived {
		s.opts.metrics.IncHistoryArchived()
	}
	s.opts.logger.Info().
		Int64("person_id", created.ID).
		Int64("group_id", created.GroupID).
		Str("outcome", outcome).
		Bool("archived_prior", archived).
		Msg("person recorded")
	return created, nil
}

// FindMatchingGroup validates the candidate and returns the group it would join.
// found is false when a write would create a new group.
func (s *PersonService) FindMatchingGroup(ctx context.Context, in model.PersonInput) (groupID int64, found bool, err error) {
	cand, err := person.Normalize(in)
	if err != nil {
		return 0, false, err
	}
	return matchGroup(ctx, s.store, cand)
}

// GetPerson returns one person row or a NotFoundError.
func (s *PersonService) GetPerson(ctx context.Context, id int64) (*model.Person, error) {
	p, err := s.store.Persons().Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, person.NewNotFoundError("person", id)
	}
	return p, err
}

// ListPersons returns every person row newest first.
func (s *PersonService) ListPersons(ctx context.Context, limit, offset int) ([]*model.Person, error) {
	if offset < 0 {
		offset = 0
	}
	return s.store.Persons().ListRecent(ctx, s.opts.pageSize(limit), offset)
}

// SearchPersons narrows person rows by every non-empty filter. A phone that
// normalises is matched exactly; anything else is matched as a raw substring.
func (s *PersonService) SearchPersons(ctx context.Context, f model.SearchFilter) ([]*model.Person, error) {
	f.LastName = strings.TrimSpace(f.LastName)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.MiddleName = strings.TrimSpace(f.MiddleName)
	f.Address = strings.TrimSpace(f.Address)
	f.Email = strings.TrimSpace(f.Email)
	if raw := strings.TrimSpace(f.Phone); raw != "" {
		if p, ok := person.NormalizePhone(raw); ok {
			f.Phone = p
		} else {
			f.Phone, f.PhoneContains = "", raw
		}
	}
	f.Limit = s.opts.pageSize(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.Persons().Search(ctx, f)
}

func matchGroup(ctx context.Context, r store.Repos, cand model.PersonInput) (int64, bool, error) {
	candidates, err := r.Persons().MatchCandidates(ctx, cand.Gender, cand.FirstName)
	if err != nil {
		return 0, false, err
	}
	id, ok := person.SelectGroup(cand, candidates)
	return id, ok, nil
}

func resolveChangeSet(ctx context.Context, tx store.Tx, ref *ChangeSetRef, now time.Time) (*model.ChangeSet, error) {
	if ref != nil && ref.ID != nil {
		cs, err := tx.ChangeSets().Get(ctx, *ref.ID)
		if errors.Is(err, model.ErrNotFound) {
			return nil, person.NewNotFoundError("changeset", *ref.ID)
		}
		return cs, err
	}
	cs := &model.ChangeSet{
		AuthoredAt: now,
		Author:     strPtr(DefaultWriteAuthor),
		Reason:     strPtr(DefaultWriteReason),
	}
	if ref != nil {
		if a := strings.TrimSpace(ref.Author); a != "" {
			cs.Author = &a
		}
		if r := strings.TrimSpace(ref.Reason); r != "" {
			cs.Reason = &r
		}
	}
	return tx.ChangeSets().Create(ctx, cs)
}

// checkTimeline verifies that archiving prior at now extends the group's history
// without a gap or overlap.
func checkTimeline(ctx context.Context, tx store.Tx, prior *model.Person, now time.Time) error {
	if !now.After(prior.CreatedAt) {
		return person.NewConsistencyError(prior.GroupID,
			"new version at %s does not follow current version created at %s",
			now.Format(time.RFC3339Nano), prior.CreatedAt.Format(time.RFC3339Nano))
	}
	last, err := tx.History().Latest(ctx, prior.GroupID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !last.ValidTo.Equal(prior.CreatedAt) {
		return person.NewConsistencyError(prior.GroupID,
			"history ends at %s but current version was created at %s",
			last.ValidTo.Format(time.RFC3339Nano), prior.CreatedAt.Format(time.RFC3339Nano))
	}
	return nil
}

func changeID(cs *model.ChangeSet) *int64 {
	if cs == nil {
		return nil
	}
	id := cs.ID
	return &id
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrConsistency):
		return "consistency"
	default:
		return "store"
	}
}
