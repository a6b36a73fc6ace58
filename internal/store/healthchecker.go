package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/health"
	"github.com/teshtvele/groups-management/internal/model"
)

// NewHealthChecker returns a checker that pings the store on every probe.
func NewHealthChecker(st Store, log zerolog.Logger, probeTimeout time.Duration) *health.ProbeChecker {
	return health.NewProbeChecker("store", func(ctx context.Context) error { return Ping(ctx, st) }, log, probeTimeout)
}

// Ping verifies the store answers queries.
func Ping(ctx context.Context, st Store) error {
	if p, ok := st.(health.HealthPinger); ok {
		return p.HealthPing(ctx)
	}
	// Group 0 never exists, so a NotFound answer proves the store responded.
	_, err := st.Groups().Get(ctx, 0)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}
