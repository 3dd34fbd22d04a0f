//go:build wireinject
// +build wireinject

package di

import (
	"NatalChart/internal/usecase"
	"NatalChart/pkg/config"
	"NatalChart/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegisterer,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideChartArchive,
		ProvideChartPublisher,
		ProvideChartCache,

		// Use cases
		ProvideChartCalculator,
		ProvideChartService,
		ProvideKafkaChartRequestsHandler,

		// Transport
		ProvideChartHandler,
		ProvideRateLimiter,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeChartService builds only the calculation path, for one-off CLI use.
func InitializeChartService(cfg *config.Config) (*usecase.ChartService, error) {
	wire.Build(
		ProvideLogger,
		ProvideRegisterer,
		ProvideMetrics,
		ProvideChartCalculator,
		ProvideLocalChartService,
	)
	return nil, nil
}
