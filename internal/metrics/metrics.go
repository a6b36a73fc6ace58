// Package metrics holds the Prometheus collectors exported by the registry service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for PersonsCreated.
const (
	OutcomeMatched  = "matched"
	OutcomeNewGroup = "new_group"
)

// Metrics tracks person writes, archived versions and HTTP latency.
type Metrics struct {
	PersonsCreated   *prometheus.CounterVec
	HistoryArchived  prometheus.Counter
	CreateFailures   *prometheus.CounterVec
	CreateDuration   prometheus.Histogram
	RequestDuration  *prometheus.HistogramVec
	ChangeSetCreated prometheus.Counter
}

// New registers every collector with reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PersonsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_persons_created_total",
			Help: "Person records written, by whether they joined an existing group",
		}, []string{"outcome"}),
		HistoryArchived: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_history_archived_total",
			Help: "Superseded person versions moved to history",
		}),
		CreateFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_person_create_failures_total",
			Help: "Failed person writes by error class",
		}, []string{"reason"}),
		CreateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_person_create_duration_seconds",
			Help:    "Duration of the person write transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_http_request_duration_seconds",
			Help:    "HTTP request latency by route template and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ChangeSetCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_changesets_created_total",
			Help: "Changesets written to the ledger",
		}),
	}
}

// IncPersonCreated records a successful write. All methods are no-ops on a nil receiver.
func (m *Metrics) IncPersonCreated(outcome string) {
	if m == nil {
		return
	}
	m.PersonsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncHistoryArchived() {
	if m == nil {
		return
	}
	m.HistoryArchived.Inc()
}

func (m *Metrics) IncCreateFailure(reason string) {
	if m == nil {
		return
	}
	m.CreateFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncChangeSetCreated() {
	if m == nil {
		return
	}
	m.ChangeSetCreated.Inc()
}

// ObserveCreate records the duration of a person write started at start.
func (m *Metrics) ObserveCreate(start time.Time) {
	if m == nil {
		return
	}
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
