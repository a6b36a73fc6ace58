package store

import (
	"context"
	"time"

	"github.com/teshtvele/groups-management/internal/model"
)

// Repos groups the per-table repositories. Lookups that find nothing return an
// error matching model.ErrNotFound.
type Repos interface {
	ChangeSets() ChangeSets
	Groups() Groups
	Persons() Persons
	History() History
}

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Repos
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. It is never retried.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is a Repos bound to an open transaction.
type Tx interface {
	Repos
	// LockMatchKey blocks until the caller holds an exclusive lock on key for the
	// rest of the transaction.
	LockMatchKey(ctx context.Context, key string) error
}

type ChangeSets interface {
	Create(ctx context.Context, cs *model.ChangeSet) (*model.ChangeSet, error)
	Get(ctx context.Context, id int64) (*model.ChangeSet, error)
	// List returns changesets newest first; limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*model.ChangeSetSummary, error)
}

type Groups interface {
	Create(ctx context.Context) (*model.PersonGroup, error)
	Get(ctx context.Context, id int64) (*model.PersonGroup, error)
	List(ctx context.Context, limit, offset int) ([]*model.GroupSummary, error)
}

type Persons interface {
	Insert(ctx context.Context, p *model.Person) (*model.Person, error)
	Get(ctx context.Context, id int64) (*model.Person, error)
	// MatchCandidates returns every person row sharing gender and first name.
	MatchCandidates(ctx context.Context, gender model.Gender, firstName string) ([]*model.Person, error)
	// Latest returns the group's most recently created row other than excludeID.
	Latest(ctx context.Context, groupID, excludeID int64) (*model.Person, error)
	// LatestAsOf returns the group's most recent row created at or before at.
	LatestAsOf(ctx context.Context, groupID int64, at time.Time) (*model.Person, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*model.Person, error)
	Search(ctx context.Context, f model.SearchFilter) ([]*model.Person, error)
}

type History interface {
	Insert(ctx context.Context, h *model.PersonHistory) (*model.PersonHistory, error)
	// Latest returns the group's history row with the greatest valid_to.
	Latest(ctx context.Context, groupID int64) (*model.PersonHistory, error)
	// ActiveAt returns the newest row with valid_from <= at < valid_to.
	ActiveAt(ctx context.Context, groupID int64, at time.Time) (*model.HistoryWithChange, error)
	// ListByGroup returns rows newest valid_from first; limit <= 0 means no limit.
	ListByGroup(ctx context.Context, groupID int64, limit int) ([]*model.HistoryWithChange, error)
	ListByChange(ctx context.Context, changeID int64) ([]*model.PersonHistory, error)
}
