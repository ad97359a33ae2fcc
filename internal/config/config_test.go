package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.OutboxPollInterval)
	assert.Equal(t, 5, cfg.Worker.OutboxMaxRetries)
	assert.Equal(t, "audit_logs", cfg.Mongo.Collection)
	assert.False(t, cfg.Redis.Enabled)

	assert.ErrorContains(t, cfg.Validate(), "database.dsn")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMARTSUPPLY_DATABASE_DSN", "postgres://u:p@localhost:5432/inv")
	t.Setenv("SMARTSUPPLY_APP_PORT", "9090")
	t.Setenv("SMARTSUPPLY_WORKER_RECONCILE_INTERVAL", "30s")
	t.Setenv("SMARTSUPPLY_HTTP_REQUIRE_CONFIRMATION", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/inv", cfg.Database.DSN)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Worker.ReconcileInterval)
	assert.True(t, cfg.HTTP.RequireConfirmation)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smartsupply.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: postgres://file
  max_conns: 4
  min_conns: 1
mongo:
  enabled: true
  database: audit
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file", cfg.Database.DSN)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.True(t, cfg.Mongo.Enabled)
	assert.Equal(t, "audit", cfg.Mongo.Database)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	loaded, err := Load("")
	require.NoError(t, err)
	loaded.Database.DSN = "postgres://x"

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ok", func(*Config) {}, ""},
		{"pool sizes", func(c *Config) { c.Database.MinConns = 50 }, "max_conns"},
		{"zero reconcile", func(c *Config) { c.Worker.ReconcileInterval = 0 }, "worker.reconcile_interval"},
		{"batch size", func(c *Config) { c.Worker.OutboxBatchSize = 0 }, "outbox_batch_size"},
		{"redis addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"mongo uri", func(c *Config) { c.Mongo.Enabled = true; c.Mongo.URI = "" }, "mongo.uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *loaded
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
