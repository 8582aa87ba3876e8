package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/narwhalmedia/watchstate/pkg/database"
)

// IntegrationEnv enables tests that need a docker daemon.
const IntegrationEnv = "WATCHSTATE_INTEGRATION"

// NewPostgresDB starts a disposable postgres, applies the goose migrations
// and returns a GORM handle to it. The test is skipped unless
// WATCHSTATE_INTEGRATION is set.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s to run postgres integration tests", IntegrationEnv)
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("watchstate"),
		tcpostgres.WithUsername("watchstate"),
		tcpostgres.WithPassword("watchstate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.Migrate(ctx, db), "apply migrations")
	return db
}
