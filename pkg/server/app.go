package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/scheduler"
)

// App owns the long-running services of `finsignal serve`: the query API,
// the scheduled batch and the ohlc.updated consumer.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	pipeline  *usecase.Pipeline
	http      *xhttp.Server
	scheduler *scheduler.Scheduler
	consumer  *pkgkafka.Consumer
	handler   pkgkafka.MessageHandler
	limiter   *ratelimit.Limiter
}

// New builds the app. consumer and limiter may be nil when disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	handler pkgkafka.MessageHandler,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		pipeline:  pipeline,
		http:      httpServer,
		scheduler: sched,
		consumer:  consumer,
		handler:   handler,
		limiter:   limiter,
	}
}

// Pipeline is used by one-shot commands.
func (a *App) Pipeline() *usecase.Pipeline { return a.pipeline }

// Run starts every service and blocks until SIGINT/SIGTERM or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if spec := a.cfg.Pipeline.Schedule; spec != "" {
		if err := a.scheduler.Add("pipeline", spec, func(ctx context.Context) {
			if _, err := a.pipeline.Run(ctx, usecase.TriggerCron, nil, nil); err != nil {
				a.l.Error("scheduled run failed", applogger.Error(err))
			}
		}); err != nil {
			return err
		}
	}
	if a.limiter != nil {
		if err := a.scheduler.Add("ratelimit-sweep", "0 */5 * * * *", func(context.Context) {
			a.limiter.Sweep()
		}); err != nil {
			return err
		}
	}
	a.scheduler.Start()

	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("listening for ohlc updates", applogger.String("topic", a.handler.Topic()))
	}

	if err := a.http.Start(); err != nil {
		return err
	}
	a.l.Info("finsignal started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Strings("symbols", a.cfg.Pipeline.Symbols),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.http.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.pipeline.Wait()

	a.l.Info("shutdown complete")
	return nil
}
