//go:build wireinject
// +build wireinject

package container

import (
	"github.com/google/wire"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/service"
	"github.com/narwhalmedia/watchstate/pkg/config"
)

// InitializeWatchStateContainer creates a fully wired engine.
func InitializeWatchStateContainer(cfg *config.WatchStateConfig) (*WatchStateContainer, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideDB,
		ProvideRegistry,
		ProvideMetrics,
		ProvideUnitOfWork,
		ProvideStatusStore,
		ProvideNextUpReader,
		ProvideCatalog,
		ProvidePublisher,
		ProvideOptions,
		wire.Bind(new(repository.UnitOfWork), new(*repository.GormUnitOfWork)),
		wire.Bind(new(repository.StatusStore), new(*repository.GormStatusStore)),
		wire.Bind(new(repository.NextUpReader), new(*repository.GormNextUpReader)),
		service.New,
		wire.Struct(new(WatchStateContainer), "*"),
	)
	return nil, nil, nil
}
