//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"srd/internal"
	"srd/internal/controllers"
	"srd/internal/providers"
	"srd/internal/review"
	"srd/internal/review/interfaces"
	"srd/internal/services"
	"srd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		services.NewReviewService,
		wire.Bind(new(providers.ReviewStatsSource), new(services.ReviewServiceInterface)),
		wire.Bind(new(interfaces.SnapshotServiceInterface), new(services.ReviewServiceInterface)),

		review.NewZstdCompressor,
		review.NewSnapshotStorage,
		review.NewKeeper,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
