// Package apitest runs the full HTTP API over a temporary SQLite store.
package apitest

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/api"
	"github.com/teshtvele/groups-management/internal/metrics"
	"github.com/teshtvele/groups-management/internal/services"
	"github.com/teshtvele/groups-management/internal/store"
	"github.com/teshtvele/groups-management/internal/testutil"
)

// Start is the first instant the server clock reports.
var Start = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// NewServer starts the API with a clock that advances one minute per read.
// The server is closed when the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()
	srv, _ := NewServerWithStore(t)
	return srv
}

// NewServerWithStore is NewServer that also returns the backing store, for tests
// that seed rows the API cannot write.
func NewServerWithStore(t testing.TB) (*httptest.Server, store.Store) {
	t.Helper()
	st := testutil.NewSQLiteStore(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	opts := []services.Option{
		services.WithClock(testutil.NewTickingClock(Start, time.Minute)),
		services.WithMetrics(m),
	}
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Persons:    services.NewPersonService(st, opts...),
		Timeline:   services.NewTimelineService(st, opts...),
		ChangeSets: services.NewChangeSetService(st, opts...),
		IsHealthy:  func() bool { return true },
		Logger:     zerolog.Nop(),
		Metrics:    m,
		Gatherer:   reg,
	}))
	t.Cleanup(srv.Close)
	return srv, st
}
