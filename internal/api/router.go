package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/api/recovery"
	"github.com/teshtvele/groups-management/internal/metrics"
	"github.com/teshtvele/groups-management/internal/services"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Persons    *services.PersonService
	Timeline   *services.TimelineService
	ChangeSets *services.ChangeSetService
	// IsHealthy backs /api/health; HealthComponents optionally adds per-component detail.
	IsHealthy        func() bool
	HealthComponents func() map[string]bool
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	// Gatherer serves /metrics; nil skips the endpoint.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to handlers and wraps them with CORS.
func NewRouter(d Deps) http.Handler {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)
	root.Use(AccessLog(d.Logger, d.Metrics))

	// Persons
	persons := NewPersonHandler(d.Persons)
	root.HandleFunc("/api/persons", persons.CreatePerson).Methods("POST")
	root.HandleFunc("/api/persons", persons.ListPersons).Methods("GET")
	root.HandleFunc("/api/persons/search", persons.SearchPersons).Methods("GET")
	root.HandleFunc("/api/persons/match", persons.MatchPerson).Methods("POST")
	root.HandleFunc("/api/persons/{personId:[0-9]+}", persons.GetPerson).Methods("GET")

	// Groups
	groups := NewGroupHandler(d.Timeline)
	root.HandleFunc("/api/groups", groups.ListGroups).Methods("GET")
	root.HandleFunc("/api/groups/{groupId:[0-9]+}/as-of", groups.PersonAsOf).Methods("GET")
	root.HandleFunc("/api/groups/{groupId:[0-9]+}/at-time", groups.GroupAtTime).Methods("GET")
	root.HandleFunc("/api/groups/{groupId:[0-9]+}/history", groups.GroupHistory).Methods("GET")
	root.HandleFunc("/api/groups/{groupId:[0-9]+}/timeline", groups.GroupTimeline).Methods("GET")

	// Changesets
	changeSets := NewChangeSetHandler(d.ChangeSets)
	root.HandleFunc("/api/changesets", changeSets.CreateChangeSet).Methods("POST")
	root.HandleFunc("/api/changesets", changeSets.ListChangeSets).Methods("GET")
	root.HandleFunc("/api/changesets/{changeSetId:[0-9]+}", changeSets.GetChangeSet).Methods("GET")

	// Health
	healthHandler := NewHealthHandler(d.IsHealthy).WithComponents(d.HealthComponents)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	if d.Gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", recovery.RequestIDHeader},
		ExposedHeaders: []string{recovery.RequestIDHeader},
	}).Handler(root)
}
