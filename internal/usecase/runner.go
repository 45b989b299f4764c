package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Unit is one (symbol, interval) pair, the granularity of all stages.
type Unit struct {
	Symbol   string
	Interval domrepo.Interval
}

// UnitFunc processes a single unit. Skippable errors (see
// domrepo.IsSkippable) count as skipped, anything else as failed.
type UnitFunc func(ctx context.Context, u Unit) error

// RunnerConfig bounds the fan-out of a stage.
type RunnerConfig struct {
	Workers     int
	UnitTimeout time.Duration
}

// Runner fans a stage out over units with bounded parallelism. A failing
// unit never aborts the others.
type Runner struct {
	cfg     RunnerConfig
	locker  domrepo.UnitLocker
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewRunner(cfg RunnerConfig, locker domrepo.UnitLocker, metrics domrepo.Metrics, l *applogger.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = 2 * time.Minute
	}
	return &Runner{cfg: cfg, locker: locker, metrics: metrics, l: l}
}

// Run processes every unit and blocks until all are done.
func (r *Runner) Run(ctx context.Context, stage string, units []Unit, fn UnitFunc) models.StageSummary {
	start := time.Now()
	sum := models.StageSummary{Stage: stage}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for _, u := range units {
		g.Go(func() error {
			result := r.runUnit(ctx, stage, u, fn)
			mu.Lock()
			switch result {
			case ResultSuccess:
				sum.Success++
			case ResultSkipped:
				sum.Skipped++
			default:
				sum.Failed++
			}
			mu.Unlock()
			r.metrics.RecordUnit(stage, result)
			return nil
		})
	}
	_ = g.Wait()

	sum.Duration = time.Since(start)
	r.metrics.RecordStageLatency(stage, sum.Duration.Seconds())
	r.l.Info("stage done",
		applogger.String("stage", stage),
		applogger.Int("success", sum.Success),
		applogger.Int("skipped", sum.Skipped),
		applogger.Int("failed", sum.Failed),
		applogger.Duration("duration_ms", sum.Duration),
	)
	return sum
}

func (r *Runner) runUnit(ctx context.Context, stage string, u Unit, fn UnitFunc) string {
	fields := []applogger.Field{
		applogger.String("stage", stage),
		applogger.String("symbol", u.Symbol),
		applogger.String("interval", string(u.Interval)),
	}

	uctx, cancel := context.WithTimeout(ctx, r.cfg.UnitTimeout)
	defer cancel()

	err := r.withLock(uctx, u, fn)
	switch {
	case err == nil:
		r.l.Debug("unit done", fields...)
		return ResultSuccess
	case errors.Is(err, domrepo.ErrLocked):
		r.l.Info("unit locked by another worker", fields...)
		return ResultSkipped
	case domrepo.IsSkippable(err):
		r.l.Warn("unit skipped", append(fields, applogger.Error(err))...)
		return ResultSkipped
	default:
		r.metrics.RecordError(stage)
		r.l.Error("unit failed", append(fields, applogger.Error(err))...)
		return ResultFailed
	}
}

func (r *Runner) withLock(ctx context.Context, u Unit, fn UnitFunc) error {
	if r.locker == nil {
		return fn(ctx, u)
	}
	release, err := r.locker.Acquire(ctx, u.Symbol, u.Interval)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, u)
}

// Units is the cross product of symbols and intervals.
func Units(symbols []string, ivs []domrepo.Interval) []Unit {
	out := make([]Unit, 0, len(symbols)*len(ivs))
	for _, iv := range ivs {
		for _, s := range symbols {
			out = append(out, Unit{Symbol: s, Interval: iv})
		}
	}
	return out
}

func mergeSummaries(stage string, parts ...models.StageSummary) models.StageSummary {
	out := models.StageSummary{Stage: stage}
	for _, p := range parts {
		out.Success += p.Success
		out.Skipped += p.Skipped
		out.Failed += p.Failed
		out.Duration += p.Duration
	}
	return out
}
