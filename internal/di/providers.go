package di

import (
	"context"
	"fmt"
	"time"

	"FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	internalrepo "FinSignal/internal/repository"
	apimetrics "FinSignal/internal/service/metrics"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/indicators"
	"FinSignal/internal/services/regime"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	"FinSignal/pkg/http/middleware"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	pkgpg "FinSignal/pkg/postgres"
	"FinSignal/pkg/scheduler"
	"FinSignal/pkg/server"

	"github.com/labstack/echo/v4"
)

func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient opens the bar store and, when configured, makes
// sure the bar table exists.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(cfg.Pipeline.Workers*2, cfg.Pipeline.Workers),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
		pkgch.WithConnLifetime(ch.ConnLifetime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if ch.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, pkgch.OHLCSchema); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

func ProvidePostgresClient(cfg *config.Config, l *applogger.Logger) (*pkgpg.Client, func(), error) {
	pg := cfg.Postgres
	client, err := pkgpg.NewClient(l, internalrepo.Models,
		pkgpg.WithDSN(pg.DSN),
		pkgpg.WithPool(pg.MaxOpenConns, pg.MaxIdleConns, pg.ConnLifetime),
		pkgpg.WithSlowThreshold(pg.SlowThreshold),
		pkgpg.WithAutoMigrate(pg.AutoMigrate),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres client: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("postgres close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

func ProvidePGStore(pg *pkgpg.Client, l *applogger.Logger) *internalrepo.PGStore {
	s := internalrepo.NewPGStore(pg)
	s.SetLogger(l)
	return s
}

func ProvidePriceStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.PriceStore {
	s := internalrepo.NewCHPriceStore(ch, cfg.ClickHouse.Table)
	s.SetLogger(l)
	return s
}

// ProvideCache returns Redis when enabled. Without it locks and the last run
// summary only live in this process.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		l.Info("redis disabled, using in-process cache")
		return cache.NewMemoryCache(), func() {}, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	cleanup := func() {
		if err := c.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return c, cleanup, nil
}

func ProvideUnitLocker(c cache.Service, cfg *config.Config, l *applogger.Logger) repository.UnitLocker {
	return internalrepo.NewCacheLocker(c, cfg.Pipeline.LockTTL, l)
}

func ProvideRunCache(c cache.Service, cfg *config.Config) repository.RunCache {
	return internalrepo.NewCacheRunStore(c, cfg.Pipeline.RunTTL)
}

// ProvideEventPublisher publishes lifecycle events to Kafka, or drops them
// when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.SignalCreated, cfg.Kafka.Topics.SignalClosed)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

func ProvideIndicatorCalculator() domsvc.IndicatorCalculator {
	return indicators.NewCalculator()
}

func ProvideChannelCalculator() domsvc.ChannelCalculator {
	return indicators.NewChannelCalculator()
}

func ProvideRegimeClassifier(cfg *config.Config) domsvc.RegimeClassifier {
	r := cfg.Regime
	return regime.NewClassifier(regime.Thresholds{
		TrendADX:      r.TrendADX,
		TrendMaxInPct: r.TrendMaxInPct,
		RangeADX:      r.RangeADX,
		RangeMinInPct: r.RangeMinInPct,
		TieBreakADX:   r.TieBreakADX,
	})
}

func ProvideSignalScorer(cfg *config.Config) domsvc.SignalScorer {
	s := cfg.Scoring
	th := scoring.Overrides{
		TrendBase:          s.TrendBase,
		ReversionBase:      s.ReversionBase,
		HoldBelow:          s.HoldBelow,
		CautiousBelow:      s.CautiousBelow,
		TrendingBonus:      s.TrendingBonus,
		VolumeRatioMin:     s.VolumeRatioMin,
		VolumeBonus:        s.VolumeBonus,
		MACDBonus:          s.MACDBonus,
		ReversionProximity: s.ReversionProximity,
		HistoryWindow:      s.HistoryWindow,
	}.Apply(scoring.DefaultThresholds())
	return scoring.NewScorer(th)
}

func ProvideStages(
	prices repository.PriceStore,
	ind repository.IndicatorStore,
	regimes repository.RegimeStore,
	calc domsvc.IndicatorCalculator,
	channel domsvc.ChannelCalculator,
	classifier domsvc.RegimeClassifier,
	scorer domsvc.SignalScorer,
	lc *usecase.Lifecycle,
	cfg *config.Config,
) *usecase.Stages {
	return usecase.NewStages(prices, ind, regimes, calc, channel, classifier, scorer, lc, cfg.Pipeline.HistoryLimit)
}

func ProvideRunner(cfg *config.Config, locker repository.UnitLocker, m repository.Metrics, l *applogger.Logger) *usecase.Runner {
	return usecase.NewRunner(usecase.RunnerConfig{
		Workers:     cfg.Pipeline.Workers,
		UnitTimeout: cfg.Pipeline.UnitTimeout,
	}, locker, m, l)
}

func ProvidePipeline(
	cfg *config.Config,
	runner *usecase.Runner,
	stages *usecase.Stages,
	runs repository.RunCache,
	l *applogger.Logger,
) (*usecase.Pipeline, error) {
	ivs, err := repository.ParseIntervals(cfg.Pipeline.Intervals)
	if err != nil {
		return nil, err
	}
	return usecase.NewPipeline(usecase.PipelineConfig{
		Symbols:      cfg.Pipeline.Symbols,
		Intervals:    ivs,
		BatchTimeout: cfg.Pipeline.BatchTimeout,
	}, runner, stages, runs, l), nil
}

// ProvideKafkaConsumer returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	k := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(k.GroupID),
		pkgkafka.WithConsumerWorkers(k.Workers),
		pkgkafka.WithConsumerRetry(k.RetryMax, k.BackoffMin, k.BackoffMax),
		pkgkafka.WithConsumerDLQ(k.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideOHLCEventHandler(cfg *config.Config, p *usecase.Pipeline, m repository.Metrics, l *applogger.Logger) pkgkafka.MessageHandler {
	return usecase.NewOHLCEventHandler(cfg.Kafka.Topics.OHLCUpdated, p, m, l)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHTTPHandler limits /api per client IP when a limiter is configured.
func ProvideHTTPHandler(l *applogger.Logger, q *usecase.SignalQueryService, p *usecase.Pipeline, limiter *ratelimit.Limiter) *api.SignalsEchoHandler {
	h := api.NewSignalsEchoHandler(l, q, p)
	if limiter != nil {
		h.Use(middleware.RateLimit(limiter, func(echo.Context) {
			apimetrics.RateLimited.Inc()
		}))
	}
	return h
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.SignalsEchoHandler) *xhttp.Server {
	s := cfg.Server
	opts := []xhttp.ServerOption{
		xhttp.WithHost(s.Host),
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithCORS(s.CORS),
		xhttp.WithSlowThreshold(s.SlowThreshold),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	return xhttp.NewServer(l, h, opts...)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	p *usecase.Pipeline,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	handler pkgkafka.MessageHandler,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, p, httpServer, sched, consumer, handler, limiter)
}
