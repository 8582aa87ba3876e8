package config

import "time"

const (
	// Database drivers.
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// Database defaults.
	DefaultPostgresPort = 5432

	// Connection pool defaults.
	DefaultMaxConnections = 25
	DefaultMinConnections = 5

	// Timeout defaults.
	DefaultMaxConnIdleTime    = 30 * time.Minute
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	DefaultTransactionTimeout = 30 * time.Second

	// Telemetry defaults.
	DefaultTelemetryPort = 2112

	// Engine defaults.
	DefaultSeedBatchSize       = 500
	DefaultNextUpShowLimit     = 6
	DefaultNextUpEpisodeLimit  = 2
	DefaultCatalogRetries      = 3
	DefaultCatalogRetryDelay   = 200 * time.Millisecond
	DefaultCatalogCacheTTL     = 5 * time.Minute
	DefaultInvalidationSubject = "watchstate.invalidate"
	DefaultIngestionSubject    = "catalog.show.updated"
)

// Invalidation backends.
const (
	InvalidationNone  = "none"
	InvalidationNATS  = "nats"
	InvalidationKafka = "kafka"
)
