package config

import (
	"os"
	"testing"
)

// clearEnv unsets every REGISTRY_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REGISTRY_ENVIRONMENT", "REGISTRY_HTTP_PORT", "REGISTRY_DB_DRIVER", "REGISTRY_POSTGRES_DSN",
		"REGISTRY_SQLITE_PATH", "REGISTRY_SEARCH_DEFAULT_LIMIT", "REGISTRY_SEARCH_MAX_LIMIT",
		"REGISTRY_CORS_ALLOWED_ORIGINS", "REGISTRY_MIGRATE_ON_START",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != DriverSQLite || cfg.SQLitePath != "./data/registry.db" {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if cfg.HTTPPort != 8080 || cfg.SearchDefaultLimit != 100 || cfg.SearchMaxLimit != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.MigrateOnStart || !cfg.IsDevelopment() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.GetHTTPAddr(); got != ":8080" {
		t.Fatalf("GetHTTPAddr = %s", got)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGISTRY_HTTP_PORT", "9191")
	t.Setenv("REGISTRY_SEARCH_DEFAULT_LIMIT", "25")
	t.Setenv("REGISTRY_CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 9191 || cfg.SearchDefaultLimit != 25 {
		t.Fatalf("env override failed: %+v", cfg)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[1] != "http://b.example" {
		t.Fatalf("AllowedOrigins = %v", origins)
	}
}

func TestConfigLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGISTRY_HTTP_PORT", "eighty")

	if _, err := New(); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() || cfg.IsProduction() {
		t.Fatalf("unexpected environment: %s", cfg.Environment)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("ResolveDefaults: %v", err)
	}
}
