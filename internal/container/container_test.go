package container_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchstate/internal/container"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/pkg/config"
	"github.com/narwhalmedia/watchstate/pkg/database"
	"github.com/narwhalmedia/watchstate/test/testutil"
)

func sqliteConfig(t *testing.T) *config.WatchStateConfig {
	cfg := config.GetDefaultWatchStateConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "watchstate.db")
	cfg.Logger.OutputPath = "stderr"
	cfg.Invalidation.Backend = config.InvalidationNone
	return cfg
}

func TestInitializeWatchStateContainer_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	c, cleanup, err := container.InitializeWatchStateContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	require.NoError(t, database.Migrate(ctx, c.DB, repository.Models()...))
	testutil.SeedShow(t, c.DB, testutil.ScenarioShow(1))

	_, ok := c.Catalog.(*catalog.CachedCatalog)
	assert.True(t, ok, "catalog should be cached when a ttl is configured")

	profileID := uuid.New()
	res, err := c.Service.AddFavorite(ctx, profileID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, res.Outcome)

	status, err := c.Service.GetWatchStatus(ctx, profileID, domain.KindShow, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotWatched, status)

	c.ForgetShow(1)
}

func TestInitializeWatchStateContainer_NoCache(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Catalog.CacheTTL = 0
	cfg.Catalog.RetryAttempts = 1

	c, cleanup, err := container.InitializeWatchStateContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	_, ok := c.Catalog.(*catalog.GormCatalog)
	assert.True(t, ok)
	c.ForgetShow(1)
}

func TestProvideOptions(t *testing.T) {
	cfg := config.GetDefaultWatchStateConfig()
	cfg.Engine.NextUpShowLimit = 3
	cfg.Engine.ReconcileAfterCascade = true

	opts := container.ProvideOptions(cfg)
	assert.Equal(t, 3, opts.NextUpShowLimit)
	assert.Equal(t, config.DefaultNextUpEpisodeLimit, opts.NextUpEpisodeLimit)
	assert.True(t, opts.ReconcileAfterCascade)
	assert.NotNil(t, opts.Now)
}
