package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
)

var dbCounter atomic.Int64

// NewTestDB creates a private in-memory SQLite database with the full schema.
// Each call gets its own database so parallel tests never share rows.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:watchstate_%d?mode=memory&cache=shared&_foreign_keys=on", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: Now,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(repository.Models()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
