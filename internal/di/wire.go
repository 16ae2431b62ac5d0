//go:build wireinject
// +build wireinject

package di

import (
	"TradeAgent/pkg/config"
	"TradeAgent/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideCandleStorage,
		ProvideFactsStore,
		ProvideFactsCache,
		ProvidePublisher,

		// Exchange clients
		ProvideCandleStream,
		ProvideBinanceREST,

		// Use cases
		ProvideAnalyzeUseCase,
		ProvidePlanUseCase,
		ProvideBacktestUseCase,
		ProvideCandlesUseCase,
		ProvideSyncUseCase,
		ProvideCandleProcessor,
		ProvideCandleCollector,
		ProvideCandlesHandler,

		// HTTP
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
