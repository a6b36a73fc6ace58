package services

import (
	"context"
	"errors"
	"time"

	"github.com/teshtvele/groups-management/internal/core/person"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/store"
)

// Fallback attribution for history rows that carry no changeset.
const (
	HistoryFallbackAuthor = "System"
	HistoryFallbackReason = "History record"
)

// TimelineService answers point-in-time and history questions about groups.
type TimelineService struct {
	store store.Store
	opts  options
}

func NewTimelineService(s store.Store, opts ...Option) *TimelineService {
	return &TimelineService{store: s, opts: buildOptions(opts)}
}

// PersonAsOf returns the group's state at t: the newest current row created at or
// before t, otherwise the history interval covering t. A nil snapshot means the
// group had no data at t.
func (s *TimelineService) PersonAsOf(ctx context.Context, groupID int64, t time.Time) (*model.PersonSnapshot, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	p, err := s.store.Persons().LatestAsOf(ctx, groupID, t)
	switch {
	case err == nil:
		return model.SnapshotFromPerson(p), nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	h, err := s.store.History().ActiveAt(ctx, groupID, t)
	switch {
	case err == nil:
		return model.SnapshotFromHistory(&h.History), nil
	case errors.Is(err, model.ErrNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// GroupAtTime returns the history interval active at t with its changeset, or nil
// when no archived version covers t.
func (s *TimelineService) GroupAtTime(ctx context.Context, groupID int64, t time.Time) (*model.GroupAtTime, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	h, err := s.store.History().ActiveAt(ctx, groupID, t)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.GroupAtTime{
		Snapshot:  model.SnapshotFromHistory(&h.History),
		ValidFrom: h.History.ValidFrom,
		ValidTo:   h.History.ValidTo,
		ChangeSet: h.ChangeSet,
	}, nil
}

// GroupHistory lists archived versions newest first. limit <= 0 returns all of them.
func (s *TimelineService) GroupHistory(ctx context.Context, groupID int64, limit int) ([]model.GroupHistoryEntry, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := s.store.History().ListByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.GroupHistoryEntry, 0, len(rows))
	for _, r := range rows {
		h := r.History
		e := model.GroupHistoryEntry{
			ID:         h.ID,
			Timestamp:  h.ValidFrom,
			Author:     HistoryFallbackAuthor,
			Reason:     HistoryFallbackReason,
			LastName:   h.LastName,
			FirstName:  h.FirstName,
			MiddleName: h.MiddleName,
			FullName:   model.FullName(h.LastName, h.FirstName, h.MiddleName),
			ValidFrom:  h.ValidFrom,
			ValidTo:    h.ValidTo,
		}
		if cs := r.ChangeSet; cs != nil {
			e.Timestamp = cs.AuthoredAt
			if cs.Author != nil {
				e.Author = *cs.Author
			}
			if cs.Reason != nil {
				e.Reason = *cs.Reason
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// GroupTimeline returns every version of the group oldest first, ending with the
// latest current row, whose ValidTo is nil.
func (s *TimelineService) GroupTimeline(ctx context.Context, groupID int64) ([]model.TimelineEntry, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := s.store.History().ListByGroup(ctx, groupID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.TimelineEntry, 0, len(rows)+1)
	for i := len(rows) - 1; i >= 0; i-- {
		h := rows[i].History
		validTo := h.ValidTo
		out = append(out, model.TimelineEntry{
			Snapshot:  model.SnapshotFromHistory(&h),
			ChangeID:  h.ChangeID,
			ValidFrom: h.ValidFrom,
			ValidTo:   &validTo,
		})
	}
	cur, err := s.store.Persons().Latest(ctx, groupID, 0)
	if errors.Is(err, model.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return append(out, model.TimelineEntry{
		Snapshot:  model.SnapshotFromPerson(cur),
		ChangeID:  cur.ChangeID,
		ValidFrom: cur.CreatedAt,
	}), nil
}

// ListGroups summarises groups in id order.
func (s *TimelineService) ListGroups(ctx context.Context, limit, offset int) ([]*model.GroupSummary, error) {
	if offset < 0 {
		offset = 0
	}
	return s.store.Groups().List(ctx, s.opts.pageSize(limit), offset)
}

func (s *TimelineService) requireGroup(ctx context.Context, groupID int64) error {
	_, err := s.store.Groups().Get(ctx, groupID)
	if errors.Is(err, model.ErrNotFound) {
		return person.NewNotFoundError("group", groupID)
	}
	return err
}
