// Package factory builds the configured store for the service and the migration command.
package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/config"
	"github.com/teshtvele/groups-management/internal/migrations"
	storepkg "github.com/teshtvele/groups-management/internal/store"
	storepg "github.com/teshtvele/groups-management/internal/store/postgres"
	storesqlite "github.com/teshtvele/groups-management/internal/store/sqlite"
)

// OpenDB connects to the configured database. Connection failures are retried
// with exponential backoff until ConnectRetrySeconds have elapsed.
func OpenDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	var open func() (*sql.DB, error)
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("REGISTRY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		open = func() (*sql.DB, error) { return storepg.Open(cfg.PostgresDSN) }
	case config.DriverSQLite:
		open = func() (*sql.DB, error) { return storesqlite.Open(cfg.SQLitePath) }
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = time.Duration(cfg.ConnectRetrySeconds) * time.Second

	var db *sql.DB
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		var err error
		db, err = open()
		return err
	}, backoff.WithContext(exp, ctx), func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("driver", cfg.DBDriver).Int("attempt", attempt).Dur("retry_in", wait).Msg("database not reachable, retrying")
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	log.Debug().Str("driver", cfg.DBDriver).Int("attempts", attempt).Msg("database connected")
	return db, nil
}

// NewStore returns the store for cfg.DBDriver. The schema is migrated when
// MigrateOnStart is set and otherwise must already be current.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	db, err := OpenDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	driver := migrationDriver(cfg.DBDriver)

	if cfg.MigrateOnStart {
		if err := migrations.Up(db, driver); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("driver", driver).Msg("schema migrations applied")
	} else if err := migrations.Status(db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema not current (set REGISTRY_MIGRATE_ON_START=true or run with -migrate-only): %w", err)
	}

	if cfg.DBDriver == config.DriverPostgres {
		return storepg.NewWithDB(db), nil
	}
	return storesqlite.NewWithDB(db), nil
}

// Migrate applies all pending migrations and closes the connection.
func Migrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := OpenDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver := migrationDriver(cfg.DBDriver)
	if err := migrations.Up(db, driver); err != nil {
		return err
	}
	log.Info().Str("driver", driver).Msg("schema migrations applied")
	return nil
}

func migrationDriver(dbDriver string) string {
	if dbDriver == config.DriverPostgres {
		return migrations.DriverPostgres
	}
	return migrations.DriverSQLite
}
