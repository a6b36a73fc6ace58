// Package client is a typed HTTP client for the registry API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teshtvele/groups-management/internal/api/respond"
	"github.com/teshtvele/groups-management/internal/model"
)

// Client talks to one registry service.
type Client struct {
	baseURL string
	http    *resty.Client
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	c := &Client{
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the service URL the client was built for.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&respond.ErrorResponse{})
}

// do runs the request and converts non-2xx responses into *APIError.
func do(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*respond.ErrorResponse); ok && body != nil && body.Error != "" {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		apiErr.Fields = body.Fields
	} else {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

// --------------------------------------------------------------------
// Persons
// --------------------------------------------------------------------

// CreatePerson writes a new current record and returns it.
func (c *Client) CreatePerson(ctx context.Context, req PersonRequest) (*model.Person, error) {
	var out model.Person
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post("/api/persons")
	if err := do(resp, err, "create person"); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchPerson reports the group a person would join without writing anything.
func (c *Client) MatchPerson(ctx context.Context, req PersonRequest) (*MatchResult, error) {
	var out MatchResult
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post("/api/persons/match")
	if err := do(resp, err, "match person"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPerson fetches one person record by id.
func (c *Client) GetPerson(ctx context.Context, id int64) (*model.Person, error) {
	var out model.Person
	resp, err := c.request(ctx).
		SetPathParam("personId", formatID(id)).
		SetResult(&out).
		Get("/api/persons/{personId}")
	if err := do(resp, err, "get person"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPersons pages through every stored person record.
func (c *Client) ListPersons(ctx context.Context, limit, offset int) (*PersonPage, error) {
	var out PersonPage
	resp, err := c.request(ctx).
		SetQueryParams(pageParams(limit, offset)).
		SetResult(&out).
		Get("/api/persons")
	if err := do(resp, err, "list persons"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchPersons filters person records by the non-empty fields of q.
func (c *Client) SearchPersons(ctx context.Context, q SearchQuery) (*PersonPage, error) {
	var out PersonPage
	resp, err := c.request(ctx).
		SetQueryParams(q.params()).
		SetResult(&out).
		Get("/api/persons/search")
	if err := do(resp, err, "search persons"); err != nil {
		return nil, err
	}
	return &out, nil
}

// --------------------------------------------------------------------
// Groups
// --------------------------------------------------------------------

// ListGroups pages through person groups.
func (c *Client) ListGroups(ctx context.Context, limit, offset int) (*GroupPage, error) {
	var out GroupPage
	resp, err := c.request(ctx).
		SetQueryParams(pageParams(limit, offset)).
		SetResult(&out).
		Get("/api/groups")
	if err := do(resp, err, "list groups"); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonAsOf returns the group's snapshot at t, or nil when nothing was valid then.
func (c *Client) PersonAsOf(ctx context.Context, groupID int64, t time.Time) (*model.PersonSnapshot, error) {
	var out struct {
		Snapshot *model.PersonSnapshot `json:"snapshot"`
	}
	resp, err := c.request(ctx).
		SetPathParam("groupId", formatID(groupID)).
		SetQueryParam("timestamp", t.UTC().Format(time.RFC3339Nano)).
		SetResult(&out).
		Get("/api/groups/{groupId}/as-of")
	if err := do(resp, err, "person as of"); err != nil {
		return nil, err
	}
	return out.Snapshot, nil
}

// GroupAtTime returns the version valid at t with its interval, or nil.
func (c *Client) GroupAtTime(ctx context.Context, groupID int64, t time.Time) (*model.GroupAtTime, error) {
	var out struct {
		Version *model.GroupAtTime `json:"version"`
	}
	resp, err := c.request(ctx).
		SetPathParam("groupId", formatID(groupID)).
		SetQueryParam("timestamp", t.UTC().Format(time.RFC3339Nano)).
		SetResult(&out).
		Get("/api/groups/{groupId}/at-time")
	if err := do(resp, err, "group at time"); err != nil {
		return nil, err
	}
	return out.Version, nil
}

// GroupHistory lists archived versions of a group, newest first.
func (c *Client) GroupHistory(ctx context.Context, groupID int64, limit int) ([]model.GroupHistoryEntry, error) {
	var out struct {
		History []model.GroupHistoryEntry `json:"history"`
	}
	r := c.request(ctx).SetPathParam("groupId", formatID(groupID)).SetResult(&out)
	if limit > 0 {
		r.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := r.Get("/api/groups/{groupId}/history")
	if err := do(resp, err, "group history"); err != nil {
		return nil, err
	}
	return out.History, nil
}

// GroupTimeline lists every version of a group, oldest first, ending with the current one.
func (c *Client) GroupTimeline(ctx context.Context, groupID int64) ([]model.TimelineEntry, error) {
	var out struct {
		Timeline []model.TimelineEntry `json:"timeline"`
	}
	resp, err := c.request(ctx).
		SetPathParam("groupId", formatID(groupID)).
		SetResult(&out).
		Get("/api/groups/{groupId}/timeline")
	if err := do(resp, err, "group timeline"); err != nil {
		return nil, err
	}
	return out.Timeline, nil
}

// --------------------------------------------------------------------
// Changesets
// --------------------------------------------------------------------

// CreateChangeSet opens a changeset that later writes can reference.
func (c *Client) CreateChangeSet(ctx context.Context, author, reason string) (*model.ChangeSet, error) {
	var out model.ChangeSet
	body := map[string]string{"author": author, "reason": reason}
	resp, err := c.request(ctx).SetBody(body).SetResult(&out).Post("/api/changesets")
	if err := do(resp, err, "create changeset"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChangeSets returns the most recent changesets with their change counts.
func (c *Client) ListChangeSets(ctx context.Context, limit int) ([]*model.ChangeSetSummary, error) {
	var out struct {
		ChangeSets []*model.ChangeSetSummary `json:"changesets"`
	}
	r := c.request(ctx).SetResult(&out)
	if limit > 0 {
		r.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := r.Get("/api/changesets")
	if err := do(resp, err, "list changesets"); err != nil {
		return nil, err
	}
	return out.ChangeSets, nil
}

// GetChangeSet returns a changeset and the history rows it archived.
func (c *Client) GetChangeSet(ctx context.Context, id int64) (*model.ChangeSetDetails, error) {
	var out model.ChangeSetDetails
	resp, err := c.request(ctx).
		SetPathParam("changeSetId", formatID(id)).
		SetResult(&out).
		Get("/api/changesets/{changeSetId}")
	if err := do(resp, err, "get changeset"); err != nil {
		return nil, err
	}
	return &out, nil
}

// --------------------------------------------------------------------
// Health
// --------------------------------------------------------------------

// Health reports whether the service says it is healthy.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	resp, err := c.request(ctx).SetResult(&out).Get("/api/health")
	if err := do(resp, err, "health"); err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("health: unexpected status %d", resp.StatusCode())
	}
	return &out, nil
}

func pageParams(limit, offset int) map[string]string {
	p := map[string]string{}
	if limit > 0 {
		p["limit"] = strconv.Itoa(limit)
	}
	if offset > 0 {
		p["offset"] = strconv.Itoa(offset)
	}
	return p
}
