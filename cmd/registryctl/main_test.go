package main

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teshtvele/groups-management/internal/client"
	"github.com/teshtvele/groups-management/internal/model"
	"github.com/teshtvele/groups-management/internal/testutil/apitest"
)

func run(t *testing.T, api string, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--api", api, "--retries", "0"}, args...))
	err := cmd.Execute()
	return out.Bytes(), err
}

func mustRun(t *testing.T, api string, out any, args ...string) {
	t.Helper()
	data, err := run(t, api, args...)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
}

var ivan = []string{"--last", "Иванов", "--first", "Иван", "--birth", "1980-05-01", "--gender", "M"}

func TestCLI_PersonGroupChangeSet(t *testing.T) {
	api := apitest.NewServer(t).URL

	var cs model.ChangeSet
	mustRun(t, api, &cs, "changeset", "create", "--author", "clerk", "--reason", "move")

	var first model.Person
	mustRun(t, api, &first, append([]string{"person", "create", "--address", "Addr1", "--phone", "89161234567"}, ivan...)...)
	require.NotNil(t, first.Phone)
	assert.Equal(t, "+7(916)123-45-67", *first.Phone)

	var m client.MatchResult
	mustRun(t, api, &m, append([]string{"person", "match", "--address", "Addr2", "--phone", "+7 916 123 45 67"}, ivan...)...)
	require.True(t, m.Matched)
	assert.Equal(t, first.GroupID, *m.GroupID)

	var second model.Person
	mustRun(t, api, &second, append([]string{"person", "create", "--address", "Addr2", "--phone", "89161234567",
		"--changeset", itoa(cs.ID)}, ivan...)...)
	assert.Equal(t, first.GroupID, second.GroupID)

	var got model.Person
	mustRun(t, api, &got, "person", "get", itoa(second.ID))
	assert.Equal(t, "Addr2", got.Address)

	var page client.PersonPage
	mustRun(t, api, &page, "person", "search", "--address", "addr")
	assert.Equal(t, 2, page.Count)

	mustRun(t, api, &page, "person", "list", "--limit", "1")
	require.Equal(t, 1, page.Count)
	assert.Equal(t, second.ID, page.Persons[0].ID)

	var groups client.GroupPage
	mustRun(t, api, &groups, "group", "list")
	assert.Equal(t, 1, groups.Count)

	var hist []model.GroupHistoryEntry
	mustRun(t, api, &hist, "group", "history", itoa(first.GroupID))
	require.Len(t, hist, 1)
	assert.Equal(t, "clerk", hist[0].Author)

	var tl []model.TimelineEntry
	mustRun(t, api, &tl, "group", "timeline", itoa(first.GroupID))
	assert.Len(t, tl, 2)

	var snap *model.PersonSnapshot
	at := first.CreatedAt.Add(time.Second).Format(time.RFC3339Nano)
	mustRun(t, api, &snap, "group", "as-of", itoa(first.GroupID), "--at", at)
	require.NotNil(t, snap)
	assert.Equal(t, "Addr1", snap.Address)

	var version *model.GroupAtTime
	mustRun(t, api, &version, "group", "at-time", itoa(first.GroupID), "--at", at)
	require.NotNil(t, version)
	assert.True(t, version.ValidTo.Equal(second.CreatedAt))

	var details model.ChangeSetDetails
	mustRun(t, api, &details, "cs", "show", itoa(cs.ID))
	require.Len(t, details.Changes, 1)
	assert.Equal(t, first.GroupID, details.Changes[0].GroupID)

	var list []*model.ChangeSetSummary
	mustRun(t, api, &list, "changeset", "list")
	assert.NotEmpty(t, list)
}

func TestCLI_Errors(t *testing.T) {
	api := apitest.NewServer(t).URL

	_, err := run(t, api, "person", "get", "abc")
	assert.ErrorContains(t, err, "PERSON_ID")

	_, err = run(t, api, "person", "get", "12345")
	assert.True(t, client.IsNotFound(err))

	_, err = run(t, api, "person", "search")
	assert.ErrorContains(t, err, "search field")

	_, err = run(t, api, "person", "create", "--last", "Иванов")
	assert.Error(t, err, "required flags missing")

	_, err = run(t, api, "group", "as-of", "1", "--at", "yesterday")
	assert.Error(t, err)
}

func TestCLI_Health(t *testing.T) {
	api := apitest.NewServer(t).URL
	var h client.HealthStatus
	mustRun(t, api, &h, "health")
	assert.True(t, h.Healthy())
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "ID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "x", ""} {
		_, err := parseID(bad, "ID")
		assert.Error(t, err, bad)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
