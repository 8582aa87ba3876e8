// Package container wires the watch status engine together.
package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchstate/internal/metrics"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/catalog"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/service"
	"github.com/narwhalmedia/watchstate/pkg/config"
	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

// WatchStateContainer holds the engine and its dependencies.
type WatchStateContainer struct {
	Config   *config.WatchStateConfig
	Logger   interfaces.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Catalog  catalog.ContentCatalog
	Service  *service.Service
}

// ForgetShow drops cached catalog entries for a show. It is a no-op when
// caching is disabled.
func (c *WatchStateContainer) ForgetShow(showID int64) {
	if cached, ok := c.Catalog.(*catalog.CachedCatalog); ok {
		cached.Forget(showID)
	}
}
