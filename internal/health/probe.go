package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc returns nil when the component answered.
type ProbeFunc func(ctx context.Context) error

// ProbeChecker runs a probe on an interval and caches the outcome. It starts
// unhealthy until the first successful probe.
type ProbeChecker struct {
	name    string
	probe   ProbeFunc
	timeout time.Duration
	log     zerolog.Logger
	healthy atomic.Bool
}

func NewProbeChecker(name string, probe ProbeFunc, log zerolog.Logger, timeout time.Duration) *ProbeChecker {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &ProbeChecker{name: name, probe: probe, timeout: timeout, log: log}
}

func (c *ProbeChecker) Name() string { return c.name }

// IsHealthy returns the cached health status (non-blocking).
func (c *ProbeChecker) IsHealthy() bool { return c.healthy.Load() }

// Check runs one probe and records its outcome.
func (c *ProbeChecker) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(probeCtx)
	if err != nil {
		c.log.Error().Stack().Str("checker", c.name).Err(err).Msg("health probe failed")
	}
	c.healthy.Store(err == nil)
	return err == nil
}

// Start begins periodic health checking.
func (c *ProbeChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
