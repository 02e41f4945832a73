package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/crucible.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, 2112, cfg.Server.MetricsPort)
	require.Equal(t, 3, cfg.Workflow.MaxIterations)
	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, 24*time.Hour, cfg.StoreTTL())
	require.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crucible.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
workflow:
  max_iterations: 5
store:
  backend: sql
  ttl: 1h
  sql:
    driver: sqlite3
    dsn: ":memory:"
`), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, 5, cfg.Workflow.MaxIterations)
	require.Equal(t, "sql", cfg.Store.Backend)
	require.Equal(t, "sqlite3", cfg.Store.SQL.Driver)
	require.Equal(t, time.Hour, cfg.StoreTTL())
	// Unset values keep their defaults.
	require.Equal(t, 2112, cfg.Server.MetricsPort)
}

func TestStoreTTLMalformed(t *testing.T) {
	cfg := &Config{}
	cfg.Store.TTL = "not-a-duration"
	require.Equal(t, time.Duration(0), cfg.StoreTTL())
}
