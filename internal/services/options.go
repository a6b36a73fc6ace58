package services

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/metrics"
)

// Clock abstracts time retrieval so write timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

type options struct {
	clock        Clock
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	searchLimit  int
	searchMaxLim int
}

// Option configures a service.
type Option func(o *options)

func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSearchLimits sets the page size used when a caller passes none and the
// largest page a caller may request.
func WithSearchLimits(def, max int) Option {
	return func(o *options) {
		if def > 0 {
			o.searchLimit = def
		}
		if max > 0 {
			o.searchMaxLim = max
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:        realClock{},
		logger:       zerolog.Nop(),
		searchLimit:  DefaultSearchLimit,
		searchMaxLim: MaxSearchLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.searchLimit > o.searchMaxLim {
		o.searchLimit = o.searchMaxLim
	}
	return o
}

// now returns the clock's time in UTC at the precision both stores keep.
func (o *options) now() time.Time {
	return o.clock.Now().UTC().Truncate(time.Microsecond)
}

// pageSize applies the default and the cap to a caller-supplied limit.
func (o *options) pageSize(limit int) int {
	if limit <= 0 {
		return o.searchLimit
	}
	if limit > o.searchMaxLim {
		return o.searchMaxLim
	}
	return limit
}

func strPtr(s string) *string { return &s }
