package model

import "time"

// Gender is the biological sex recorded for a person.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ChangeSet is one attributable unit of write activity. Immutable once stored.
type ChangeSet struct {
	ID         int64     `json:"id"`
	AuthoredAt time.Time `json:"authoredAt"`
	Author     *string   `json:"author,omitempty"`
	Reason     *string   `json:"reason,omitempty"`
}

// PersonGroup anchors every version of one deduplicated identity.
type PersonGroup struct {
	ID int64 `json:"id"`
}

// Person is a current record: the latest known version of a group's data as of CreatedAt.
type Person struct {
	ID         int64     `json:"id"`
	GroupID    int64     `json:"groupId"`
	ChangeID   *int64    `json:"changeId,omitempty"`
	LastName   string    `json:"lastName"`
	FirstName  string    `json:"firstName"`
	MiddleName *string   `json:"middleName,omitempty"`
	BirthDate  time.Time `json:"birthDate"`
	Gender     Gender    `json:"gender"`
	Address    string    `json:"address"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	IsCurrent  bool      `json:"isCurrent"`
}

// PersonHistory is a superseded version, valid over [ValidFrom, ValidTo).
type PersonHistory struct {
	ID         int64     `json:"id"`
	GroupID    int64     `json:"groupId"`
	ChangeID   *int64    `json:"changeId,omitempty"`
	LastName   string    `json:"lastName"`
	FirstName  string    `json:"firstName"`
	MiddleName *string   `json:"middleName,omitempty"`
	BirthDate  time.Time `json:"birthDate"`
	Gender     Gender    `json:"gender"`
	Address    string    `json:"address"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidTo    time.Time `json:"validTo"`
}

// PersonInput is a candidate record submitted for registration or matching.
type PersonInput struct {
	LastName   string
	FirstName  string
	MiddleName *string
	BirthDate  time.Time
	Gender     Gender
	Address    string
	Phone      *string
	Email      *string
}

// FullName joins last, first and middle name.
func FullName(last, first string, middle *string) string {
	name := last + " " + first
	if middle != nil && *middle != "" {
		name += " " + *middle
	}
	return name
}

// PersonSnapshot is the state of a group at a point in time, taken either from a
// current record or from a history interval.
type PersonSnapshot struct {
	GroupID    int64     `json:"groupId"`
	LastName   string    `json:"lastName"`
	FirstName  string    `json:"firstName"`
	MiddleName *string   `json:"middleName,omitempty"`
	BirthDate  time.Time `json:"birthDate"`
	Gender     Gender    `json:"gender"`
	Address    string    `json:"address"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	// Source is "current" or "history".
	Source string `json:"source"`
}

// SnapshotFromPerson converts a current record into a snapshot.
func SnapshotFromPerson(p *Person) *PersonSnapshot {
	return &PersonSnapshot{
		GroupID: p.GroupID, LastName: p.LastName, FirstName: p.FirstName, MiddleName: p.MiddleName,
		BirthDate: p.BirthDate, Gender: p.Gender, Address: p.Address, Phone: p.Phone, Email: p.Email,
		Source: "current",
	}
}

// SnapshotFromHistory converts a history interval into a snapshot.
func SnapshotFromHistory(h *PersonHistory) *PersonSnapshot {
	return &PersonSnapshot{
		GroupID: h.GroupID, LastName: h.LastName, FirstName: h.FirstName, MiddleName: h.MiddleName,
		BirthDate: h.BirthDate, Gender: h.Gender, Address: h.Address, Phone: h.Phone, Email: h.Email,
		Source: "history",
	}
}

// HistoryWithChange is a history row joined with its (optional) changeset.
type HistoryWithChange struct {
	History   PersonHistory
	ChangeSet *ChangeSet
}

// GroupHistoryEntry summarises one archived version of a group.
type GroupHistoryEntry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Author     string    `json:"author"`
	Reason     string    `json:"reason"`
	LastName   string    `json:"lastName"`
	FirstName  string    `json:"firstName"`
	MiddleName *string   `json:"middleName,omitempty"`
	FullName   string    `json:"fullName"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidTo    time.Time `json:"validTo"`
}

// GroupAtTime is the history interval active at a probe time with its changeset info.
type GroupAtTime struct {
	Snapshot  *PersonSnapshot `json:"snapshot"`
	ValidFrom time.Time       `json:"validFrom"`
	ValidTo   time.Time       `json:"validTo"`
	ChangeSet *ChangeSet      `json:"changeSet,omitempty"`
}

// TimelineEntry is one version in a group's full timeline. ValidTo is nil for the
// current record.
type TimelineEntry struct {
	Snapshot  *PersonSnapshot `json:"snapshot"`
	ChangeID  *int64          `json:"changeId,omitempty"`
	ValidFrom time.Time       `json:"validFrom"`
	ValidTo   *time.Time      `json:"validTo,omitempty"`
}

// ChangeSetSummary is a changeset annotated with the number of person rows it produced.
type ChangeSetSummary struct {
	ChangeSet
	ChangesCount int `json:"changesCount"`
}

// ChangeSetChange is one history row produced by a changeset.
type ChangeSetChange struct {
	GroupID    int64     `json:"groupId"`
	LastName   string    `json:"lastName"`
	FirstName  string    `json:"firstName"`
	MiddleName *string   `json:"middleName,omitempty"`
	FullName   string    `json:"fullName"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidTo    time.Time `json:"validTo"`
}

// ChangeSetDetails is a changeset with everything it archived.
type ChangeSetDetails struct {
	ChangeSet
	Changes []ChangeSetChange `json:"changes"`
}

// GroupSummary aggregates the person rows of one group.
type GroupSummary struct {
	ID             int64     `json:"id"`
	MemberCount    int       `json:"memberCount"`
	FirstCreatedAt time.Time `json:"firstCreatedAt"`
	LastCreatedAt  time.Time `json:"lastCreatedAt"`
}

// SearchFilter narrows a search over current records. Empty fields are ignored.
type SearchFilter struct {
	LastName   string
	FirstName  string
	MiddleName string
	Address    string
	Email      string
	// Phone is matched exactly against the canonical form.
	Phone string
	// PhoneContains is used when the supplied phone could not be normalised.
	PhoneContains string
	Limit         int
	Offset        int
}
