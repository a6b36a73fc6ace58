package registryservice

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teshtvele/groups-management/internal/config"
)

type flag struct{ v atomic.Bool }

func (f *flag) IsHealthy() bool { return f.v.Load() }

func TestStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, startupHealthTimeout(1))
	assert.Equal(t, 30*time.Second, startupHealthTimeout(15))
	assert.Equal(t, 120*time.Second, startupHealthTimeout(60))
}

func TestWaitUntilHealthy(t *testing.T) {
	cfg := config.NewForTesting()
	f := &flag{}
	go func() {
		time.Sleep(150 * time.Millisecond)
		f.v.Store(true)
	}()
	require.NoError(t, waitUntilHealthy(context.Background(), cfg, f))
}

func TestWaitUntilHealthy_ContextCancelled(t *testing.T) {
	cfg := config.NewForTesting()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitUntilHealthy(ctx, cfg, &flag{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.HTTPPort = 9191
	srv := newHTTPServer(context.Background(), cfg, nil)
	assert.Equal(t, ":9191", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
}
