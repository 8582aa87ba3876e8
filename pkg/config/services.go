package config

import (
	"errors"
	"fmt"
	"time"
)

// WatchStateConfig is the configuration of the watch status engine.
type WatchStateConfig struct {
	Service      ServiceConfig      `koanf:"service"`
	Database     DatabaseConfig     `koanf:"database"`
	Logger       LoggerConfig       `koanf:"logger"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Engine       EngineSettings     `koanf:"engine"`
	Catalog      CatalogSettings    `koanf:"catalog"`
	Invalidation InvalidationConfig `koanf:"invalidation"`
	Ingestion    IngestionConfig    `koanf:"ingestion"`
}

// EngineSettings tunes the cascade and lifecycle operations.
type EngineSettings struct {
	TransactionTimeout    time.Duration `koanf:"transaction_timeout"`
	SeedBatchSize         int           `koanf:"seed_batch_size"`
	NextUpShowLimit       int           `koanf:"next_up_show_limit"`
	NextUpEpisodeLimit    int           `koanf:"next_up_episode_limit"`
	ReconcileAfterCascade bool          `koanf:"reconcile_after_cascade"`
}

// CatalogSettings controls access to the content catalog.
type CatalogSettings struct {
	CacheTTL      time.Duration `koanf:"cache_ttl"` // 0 disables caching
	RetryAttempts uint          `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// InvalidationConfig selects where affected (profile, show) pairs are published.
type InvalidationConfig struct {
	Backend      string   `koanf:"backend"` // none, nats, kafka
	NATSURL      string   `koanf:"nats_url"`
	Subject      string   `koanf:"subject"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
}

// IngestionConfig configures the catalog change listener started by serve.
type IngestionConfig struct {
	NATSURL string `koanf:"nats_url"`
	Subject string `koanf:"subject"`
	Queue   string `koanf:"queue"`
}

// Validate validates the watch state configuration
func (c *WatchStateConfig) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name is required")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Engine.TransactionTimeout <= 0 {
		return errors.New("transaction timeout must be positive")
	}
	if c.Engine.SeedBatchSize < 1 {
		return fmt.Errorf("seed batch size must be at least 1")
	}
	if c.Engine.NextUpShowLimit < 1 || c.Engine.NextUpEpisodeLimit < 1 {
		return fmt.Errorf("next-up limits must be at least 1")
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("catalog cache ttl cannot be negative")
	}

	switch c.Invalidation.Backend {
	case InvalidationNone, "":
	case InvalidationNATS:
		if c.Invalidation.NATSURL == "" {
			return errors.New("nats url is required for nats invalidation")
		}
	case InvalidationKafka:
		if len(c.Invalidation.KafkaBrokers) == 0 || c.Invalidation.KafkaTopic == "" {
			return errors.New("kafka brokers and topic are required for kafka invalidation")
		}
	default:
		return fmt.Errorf("unsupported invalidation backend: %q", c.Invalidation.Backend)
	}
	return nil
}

// GetDefaultWatchStateConfig returns default configuration values.
func GetDefaultWatchStateConfig() *WatchStateConfig {
	return &WatchStateConfig{
		Service: ServiceConfig{
			Name:        "watchstate",
			Environment: "dev",
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Path:            "watchstate.db",
			Host:            "localhost",
			Port:            DefaultPostgresPort,
			User:            "narwhal",
			Password:        "narwhal_dev",
			Database:        "watchstate",
			SSLMode:         "disable",
			MaxConnections:  DefaultMaxConnections,
			MinConnections:  DefaultMinConnections,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: DefaultMaxConnIdleTime,
			SlowThreshold:   DefaultSlowQueryThreshold,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    DefaultTelemetryPort,
		},
		Engine: EngineSettings{
			TransactionTimeout: DefaultTransactionTimeout,
			SeedBatchSize:      DefaultSeedBatchSize,
			NextUpShowLimit:    DefaultNextUpShowLimit,
			NextUpEpisodeLimit: DefaultNextUpEpisodeLimit,
		},
		Catalog: CatalogSettings{
			CacheTTL:      DefaultCatalogCacheTTL,
			RetryAttempts: DefaultCatalogRetries,
			RetryDelay:    DefaultCatalogRetryDelay,
		},
		Invalidation: InvalidationConfig{
			Backend:    InvalidationNone,
			Subject:    DefaultInvalidationSubject,
			KafkaTopic: "watchstate-invalidation",
		},
		Ingestion: IngestionConfig{
			Subject: DefaultIngestionSubject,
			Queue:   "watchstate",
		},
	}
}
