package container

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/invalidation"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/service"
	"github.com/narwhalmedia/watchstate/pkg/config"
	"github.com/narwhalmedia/watchstate/pkg/database"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

// ProvideLogger builds the service logger and tags it with the service name.
func ProvideLogger(cfg *config.WatchStateConfig) (interfaces.Logger, func(), error) {
	lc := cfg.Logger.ToLoggerConfig()
	lc.InitialFields = map[string]interface{}{
		"service": cfg.Service.Name,
		"version": config.GetServiceVersion(&cfg.Service),
	}
	zl, err := lc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zl, func() { _ = zl.Sync() }, nil
}

// ProvideDB opens the status database.
func ProvideDB(cfg *config.WatchStateConfig, log interfaces.Logger) (*gorm.DB, func(), error) {
	dc := cfg.Database.ToDatabaseConfig()
	dc.Debug = cfg.Logger.Level == "debug"
	db, err := database.NewGormDB(dc, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error("failed to close database", logger.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRegistry creates the registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics registers the engine collectors.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func ProvideUnitOfWork(db *gorm.DB, cfg *config.WatchStateConfig) *repository.GormUnitOfWork {
	return repository.NewUnitOfWork(db, cfg.Engine.SeedBatchSize)
}

func ProvideStatusStore(db *gorm.DB, cfg *config.WatchStateConfig) *repository.GormStatusStore {
	return repository.NewStatusStore(db, cfg.Engine.SeedBatchSize)
}

func ProvideNextUpReader(db *gorm.DB) *repository.GormNextUpReader {
	return repository.NewNextUpReader(db)
}

// ProvideCatalog layers retries and, when a TTL is set, a read-through cache
// over the catalog tables.
func ProvideCatalog(db *gorm.DB, cfg *config.WatchStateConfig) catalog.ContentCatalog {
	var c catalog.ContentCatalog = catalog.NewGormCatalog(db)
	if cfg.Catalog.RetryAttempts > 1 {
		c = catalog.NewRetryingCatalog(c, cfg.Catalog.RetryAttempts, cfg.Catalog.RetryDelay)
	}
	if cfg.Catalog.CacheTTL > 0 {
		c = catalog.NewCachedCatalog(c, cfg.Catalog.CacheTTL)
	}
	return c
}

// ProvidePublisher selects the invalidation backend.
func ProvidePublisher(cfg *config.WatchStateConfig, log interfaces.Logger) (invalidation.Publisher, func(), error) {
	ic := cfg.Invalidation
	switch ic.Backend {
	case config.InvalidationNATS:
		conn, drain, err := invalidation.Connect(ic.NATSURL, cfg.Service.Name, log)
		if err != nil {
			return nil, nil, err
		}
		return invalidation.NewNATSPublisher(conn, ic.Subject, log), drain, nil
	case config.InvalidationKafka:
		producer, err := invalidation.NewKafkaProducer(ic.KafkaBrokers)
		if err != nil {
			return nil, nil, err
		}
		p := invalidation.NewKafkaPublisher(producer, ic.KafkaTopic)
		cleanup := func() {
			if err := p.Close(); err != nil {
				log.Error("failed to close kafka producer", logger.Error(err))
			}
		}
		return p, cleanup, nil
	default:
		return invalidation.NewNoopPublisher(), func() {}, nil
	}
}

// ProvideOptions maps engine settings onto service options.
func ProvideOptions(cfg *config.WatchStateConfig) service.Options {
	opts := service.DefaultOptions()
	opts.TransactionTimeout = cfg.Engine.TransactionTimeout
	opts.NextUpShowLimit = cfg.Engine.NextUpShowLimit
	opts.NextUpEpisodeLimit = cfg.Engine.NextUpEpisodeLimit
	opts.ReconcileAfterCascade = cfg.Engine.ReconcileAfterCascade
	return opts
}
