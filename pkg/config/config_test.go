package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServiceConfig_Defaults(t *testing.T) {
	cfg := GetDefaultWatchStateConfig()
	require.NoError(t, LoadServiceConfig("watchstate", "", cfg))

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Engine.TransactionTimeout)
	assert.Equal(t, 6, cfg.Engine.NextUpShowLimit)
	assert.Equal(t, 2, cfg.Engine.NextUpEpisodeLimit)
	assert.False(t, cfg.Engine.ReconcileAfterCascade)
	assert.Equal(t, InvalidationNone, cfg.Invalidation.Backend)
}

func TestLoadServiceConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchstate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  path: /tmp/watchstate.db
engine:
  seed_batch_size: 100
  reconcile_after_cascade: true
catalog:
  cache_ttl: 1m
`), 0o600))

	t.Setenv("WATCHSTATE_ENGINE__SEED_BATCH_SIZE", "250")
	t.Setenv("WATCHSTATE_ENGINE__TRANSACTION_TIMEOUT", "45s")

	cfg := GetDefaultWatchStateConfig()
	require.NoError(t, LoadServiceConfig("watchstate", path, cfg))

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/watchstate.db", cfg.Database.Path)
	assert.Equal(t, 250, cfg.Engine.SeedBatchSize)
	assert.Equal(t, 45*time.Second, cfg.Engine.TransactionTimeout)
	assert.True(t, cfg.Engine.ReconcileAfterCascade)
	assert.Equal(t, time.Minute, cfg.Catalog.CacheTTL)
}

func TestLoadServiceConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchstate.toml")
	require.NoError(t, os.WriteFile(path, []byte("engine = {}"), 0o600))

	err := LoadServiceConfig("watchstate", path, GetDefaultWatchStateConfig())
	assert.ErrorContains(t, err, "unsupported config file format")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "engine.transaction_timeout", envKey("ENGINE__TRANSACTION_TIMEOUT"))
	assert.Equal(t, "database.driver", envKey("DATABASE__DRIVER"))
}

func TestWatchStateConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *WatchStateConfig)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *WatchStateConfig) {},
		},
		{
			name:    "missing service name",
			mutate:  func(c *WatchStateConfig) { c.Service.Name = "" },
			wantErr: "service name is required",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *WatchStateConfig) { c.Database.Driver = DriverSQLite; c.Database.Path = "" },
			wantErr: "database path is required",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *WatchStateConfig) { c.Database.Driver = "mysql" },
			wantErr: "unsupported database driver",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *WatchStateConfig) { c.Engine.TransactionTimeout = 0 },
			wantErr: "transaction timeout must be positive",
		},
		{
			name:    "zero next-up limit",
			mutate:  func(c *WatchStateConfig) { c.Engine.NextUpShowLimit = 0 },
			wantErr: "next-up limits",
		},
		{
			name:    "nats without url",
			mutate:  func(c *WatchStateConfig) { c.Invalidation.Backend = InvalidationNATS },
			wantErr: "nats url is required",
		},
		{
			name:    "kafka without brokers",
			mutate:  func(c *WatchStateConfig) { c.Invalidation.Backend = InvalidationKafka },
			wantErr: "kafka brokers and topic are required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *WatchStateConfig) { c.Invalidation.Backend = "redis" },
			wantErr: "unsupported invalidation backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultWatchStateConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
