package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gstdirectory/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// go test -v --run TestLoadDefaults
func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join("data", "data.json"), cfg.Store.File.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, time.Hour, cfg.Postgres.ConnMaxLifetime)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
  allowed_origins: ["https://example.com"]
store:
  backend: sqlite
  sqlite:
    path: /tmp/x.db
postgres:
  max_open_conns: 3
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 3, cfg.Postgres.MaxOpenConns)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GSTDIR_STORE_BACKEND", "memory")
	t.Setenv("GSTDIR_SERVER_ADDR", ":9999")
	t.Setenv("GSTDIR_POSTGRES_PORT", "6543")

	cfg, err := config.Load(writeConfig(t, "store:\n  backend: file\n"))
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 6543, cfg.Postgres.Port)
}

func TestLoadUnknownBackend(t *testing.T) {
	_, err := config.Load(writeConfig(t, "store:\n  backend: mongo\n"))
	require.ErrorContains(t, err, "unknown store.backend")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := config.Load("config.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Store.File.Watch)
	assert.True(t, cfg.Postgres.CreateDB)
}
