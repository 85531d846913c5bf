//go:build wireinject
// +build wireinject

package di

import (
	"GoldPulse/pkg/config"
	"GoldPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideOutcomeAudit,
		ProvideUpdatePublisher,
		ProvideVolFeed,
		ProvideMarketStream,

		// Learning core
		ProvideReliabilityStore,
		ProvideWeightsTracker,
		ProvideConfidenceEngine,
		ProvideConfidenceScorer,
		ProvideWeightProvider,

		// Use cases
		ProvideThresholdPolicy,
		ProvideFusionEngine,
		ProvideDecisionEngine,
		ProvideOutcomeProcessor,
		ProvideOutcomePipeline,
		ProvideTickWatcher,

		// Intake transports
		ProvideOutcomeHandler,
		ProvideRedisQueue,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
