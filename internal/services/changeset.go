package services

import (
	"context"
	"errors"
	"strings"

	"github.com/teshtvele/groups-management/internal/core/person"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
)

// DefaultChangeSetAuthor is recorded when CreateChangeSet is called without an author.
const DefaultChangeSetAuthor = "System"

// ChangeSetService exposes the changeset ledger.
type ChangeSetService struct {
	store store.Store
	opts  options
}

func NewChangeSetService(s store.Store, opts ...Option) *ChangeSetService {
	return &ChangeSetService{store: s, opts: buildOptions(opts)}
}

// CreateChangeSet appends a changeset authored now. An empty reason is stored as NULL.
func (s *ChangeSetService) CreateChangeSet(ctx context.Context, author, reason string) (*model.ChangeSet, error) {
	cs := &model.ChangeSet{AuthoredAt: s.opts.now(), Author: strPtr(DefaultChangeSetAuthor)}
	if a := strings.TrimSpace(author); a != "" {
		cs.Author = &a
	}
	if r := strings.TrimSpace(reason); r != "" {
		cs.Reason = &r
	}
	out, err := s.store.ChangeSets().Create(ctx, cs)
	if err != nil {
		return nil, err
	}
	s.opts.metrics.IncChangeSetCreated()
	s.opts.logger.Info().Int64("change_set_id", out.ID).Str("author", *out.Author).Msg("changeset created")
	return out, nil
}

// Get returns one changeset or a NotFoundError.
func (s *ChangeSetService) Get(ctx context.Context, id int64) (*model.ChangeSet, error) {
	cs, err := s.store.ChangeSets().Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, person.NewNotFoundError("changeset", id)
	}
	return cs, err
}

// Details returns the changeset with every history row it archived.
func (s *ChangeSetService) Details(ctx context.Context, id int64) (*model.ChangeSetDetails, error) {
	cs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.History().ListByChange(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &model.ChangeSetDetails{ChangeSet: *cs, Changes: make([]model.ChangeSetChange, 0, len(rows))}
	for _, h := range rows {
		out.Changes = append(out.Changes, model.ChangeSetChange{
			GroupID:    h.GroupID,
			LastName:   h.LastName,
			FirstName:  h.FirstName,
			MiddleName: h.MiddleName,
			FullName:   model.FullName(h.LastName, h.FirstName, h.MiddleName),
			ValidFrom:  h.ValidFrom,
			ValidTo:    h.ValidTo,
		})
	}
	return out, nil
}

// List returns changesets newest first with their person row counts. limit <= 0
// returns the whole ledger.
func (s *ChangeSetService) List(ctx context.Context, limit int) ([]*model.ChangeSetSummary, error) {
	if limit > s.opts.searchMaxLim {
		limit = s.opts.searchMaxLim
	}
	return s.store.ChangeSets().List(ctx, limit)
}
