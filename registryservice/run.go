// Package registryservice assembles and runs the person registry HTTP service.
package registryservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/teshtvele/groups-management/internal/api"
	"github.com/teshtvele/groups-management/internal/config"
	"github.com/teshtvele/groups-management/internal/factory"
	"github.com/teshtvele/groups-management/internal/health"
	"github.com/teshtvele/groups-management/internal/logger"
	"github.com/teshtvele/groups-management/internal/metrics"
	"github.com/teshtvele/groups-management/internal/services"
	"github.com/teshtvele/groups-management/internal/store"
)

const serviceName = "registry-service"

// Run starts the registry HTTP server and blocks until shutdown or error.
func Run() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Registry service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store unavailable")
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	router := buildRouter(st, cfg, log, svcHealth)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// Migrate applies the schema and exits without serving.
func Migrate() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := newServerContext()
	defer stop()
	return factory.Migrate(ctx, cfg, log)
}

// loadConfig reads the environment and replaces the global logger with one
// configured from it.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	log := logger.New(serviceName)
	zlog.Logger = log

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, log, err
	}

	log = logger.NewWithOptions(serviceName, logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.IsDevelopment(),
	})
	zlog.Logger = log
	return cfg, log, nil
}

func buildRouter(st store.Store, cfg *config.Config, log zerolog.Logger, svcHealth *health.ServiceHealthChecker) http.Handler {
	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []services.Option{
		services.WithLogger(log),
		services.WithMetrics(m),
		services.WithSearchLimits(cfg.SearchDefaultLimit, cfg.SearchMaxLimit),
	}
	return api.NewRouter(api.Deps{
		Persons:          services.NewPersonService(st, opts...),
		Timeline:         services.NewTimelineService(st, opts...),
		ChangeSets:       services.NewChangeSetService(st, opts...),
		IsHealthy:        svcHealth.IsHealthy,
		HealthComponents: svcHealth.Components,
		Logger:           log,
		Metrics:          m,
		Gatherer:         prometheus.DefaultGatherer,
		AllowedOrigins:   cfg.AllowedOrigins(),
	})
}

// startHealthCheckers starts the store probe and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(st, log, probeTimeout)
	storeChecker.Check(ctx)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the probe interval, never less than 30 seconds.
func startupHealthTimeout(healthIntervalSeconds int) time.Duration {
	timeout := healthIntervalSeconds * 2
	if timeout < 30 {
		timeout = 30
	}
	return time.Duration(timeout) * time.Second
}

// waitUntilHealthy blocks until the service reports healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth interface{ IsHealthy() bool }) error {
	timeout := startupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
