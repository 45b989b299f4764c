//go:build wireinject
// +build wireinject

package di

import (
	"FinSignal/internal/domain/repository"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	"FinSignal/pkg/scheduler"
	"FinSignal/pkg/server"

	"github.com/google/wire"
)

var storeSet = wire.NewSet(
	ProvidePostgresClient,
	ProvidePGStore,
	wire.Bind(new(repository.IndicatorStore), new(*internalrepo.PGStore)),
	wire.Bind(new(repository.RegimeStore), new(*internalrepo.PGStore)),
	wire.Bind(new(repository.SignalStore), new(*internalrepo.PGStore)),
	ProvideCache,
	ProvideRunCache,
)

var pipelineSet = wire.NewSet(
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvidePriceStore,
	ProvideUnitLocker,
	ProvideEventPublisher,
	ProvideIndicatorCalculator,
	ProvideChannelCalculator,
	ProvideRegimeClassifier,
	ProvideSignalScorer,
	usecase.NewLifecycle,
	ProvideStages,
	ProvideRunner,
	ProvidePipeline,
)

// InitializeApp wires the full service: pipeline, query API, scheduler and
// the Kafka trigger.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		storeSet,
		pipelineSet,
		usecase.NewSignalQueryService,
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		scheduler.New,
		ProvideKafkaConsumer,
		ProvideOHLCEventHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeQueryService wires the read side only, for CLI queries.
func InitializeQueryService(cfg *config.Config) (*usecase.SignalQueryService, func(), error) {
	wire.Build(
		ProvideLogger,
		storeSet,
		usecase.NewSignalQueryService,
	)
	return nil, nil, nil
}
