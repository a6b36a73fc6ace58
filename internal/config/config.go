package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Supported database drivers.
const (
	DriverAuto     = "auto"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the configuration for the registry service
// Environment variables are automatically parsed from REGISTRY_ prefix
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort           int    `envconfig:"HTTP_PORT" default:"8080"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Storage: auto selects postgres when a DSN is present, sqlite otherwise
	DBDriver            string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath          string `envconfig:"SQLITE_PATH" default:"./data/registry.db"`
	MigrateOnStart      bool   `envconfig:"MIGRATE_ON_START" default:"true"`
	ConnectRetrySeconds int    `envconfig:"CONNECT_RETRY_SECONDS" default:"30"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// Paging
	SearchDefaultLimit int `envconfig:"SEARCH_DEFAULT_LIMIT" default:"100"`
	SearchMaxLimit     int `envconfig:"SEARCH_MAX_LIMIT" default:"1000"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ResolveDefaults derives DBDriver when set to "auto" or empty and validates the result.
func (c *Config) ResolveDefaults() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "" || c.DBDriver == DriverAuto {
		if c.PostgresDSN != "" {
			c.DBDriver = DriverPostgres
		} else {
			c.DBDriver = DriverSQLite
		}
	}

	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("REGISTRY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("REGISTRY_SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.SearchDefaultLimit <= 0 || c.SearchMaxLimit <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.SearchDefaultLimit > c.SearchMaxLimit {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT (%d) exceeds SEARCH_MAX_LIMIT (%d)", c.SearchDefaultLimit, c.SearchMaxLimit)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with REGISTRY_
// Example: REGISTRY_HTTP_PORT, REGISTRY_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REGISTRY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("sqlite_path", cfg.SQLitePath).
		Bool("migrate_on_start", cfg.MigrateOnStart).
		Int("search_default_limit", cfg.SearchDefaultLimit).
		Int("search_max_limit", cfg.SearchMaxLimit).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		CORSAllowedOrigins:        "*",
		DBDriver:                  DriverSQLite,
		SQLitePath:                ":memory:",
		MigrateOnStart:            true,
		ConnectRetrySeconds:       1,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		SearchDefaultLimit:        100,
		SearchMaxLimit:            1000,
		LogLevel:                  "debug",
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AllowedOrigins splits CORSAllowedOrigins into its entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
