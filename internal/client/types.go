package client

import (
	"strconv"

	"github.com/teshtvele/groups-management/internal/model"
)

// PersonRequest is the body for creating or matching a person.
// BirthDate uses the YYYY-MM-DD layout.
type PersonRequest struct {
	LastName   string  `json:"lastName"`
	FirstName  string  `json:"firstName"`
	MiddleName *string `json:"middleName,omitempty"`
	BirthDate  string  `json:"birthDate"`
	Gender     string  `json:"gender"`
	Address    string  `json:"address"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`

	// Attribution; all empty means the service opens a default changeset.
	ChangeSetID *int64 `json:"changeSetId,omitempty"`
	Author      string `json:"author,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// MatchResult reports the group an input would join.
type MatchResult struct {
	Matched bool   `json:"matched"`
	GroupID *int64 `json:"groupId"`
}

type PersonPage struct {
	Persons []*model.Person `json:"persons"`
	Count   int             `json:"count"`
	Offset  int             `json:"offset"`
}

type GroupPage struct {
	Groups []*model.GroupSummary `json:"groups"`
	Count  int                   `json:"count"`
	Offset int                   `json:"offset"`
}

// SearchQuery filters persons; empty fields are ignored.
type SearchQuery struct {
	LastName   string
	FirstName  string
	MiddleName string
	Address    string
	Email      string
	Phone      string
	Limit      int
	Offset     int
}

func (q SearchQuery) params() map[string]string {
	p := pageParams(q.Limit, q.Offset)
	for k, v := range map[string]string{
		"lastName":   q.LastName,
		"firstName":  q.FirstName,
		"middleName": q.MiddleName,
		"address":    q.Address,
		"email":      q.Email,
		"phone":      q.Phone,
	} {
		if v != "" {
			p[k] = v
		}
	}
	return p
}

type HealthStatus struct {
	Status     string          `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Components map[string]bool `json:"components,omitempty"`
}

// Healthy reports whether Status is "healthy".
func (h *HealthStatus) Healthy() bool { return h != nil && h.Status == "healthy" }

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
