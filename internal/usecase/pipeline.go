package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"

	"github.com/google/uuid"
)

const (
	TriggerCron  = "cron"
	TriggerCLI   = "cli"
	TriggerAPI   = "api"
	TriggerKafka = "kafka"
)

// PipelineConfig is the default universe and the batch deadline.
type PipelineConfig struct {
	Symbols      []string
	Intervals    []domrepo.Interval
	BatchTimeout time.Duration
}

// Pipeline runs indicators, channel, regime and signals in order. Each stage
// finishes for every unit before the next one starts.
type Pipeline struct {
	cfg    PipelineConfig
	runner *Runner
	stages *Stages
	runs   domrepo.RunCache
	l      *applogger.Logger

	wg sync.WaitGroup
}

func NewPipeline(cfg PipelineConfig, runner *Runner, stages *Stages, runs domrepo.RunCache, l *applogger.Logger) *Pipeline {
	if len(cfg.Intervals) == 0 {
		cfg.Intervals = domrepo.AllIntervals
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 30 * time.Minute
	}
	return &Pipeline{cfg: cfg, runner: runner, stages: stages, runs: runs, l: l}
}

// Symbols is the configured universe.
func (p *Pipeline) Symbols() []string { return p.cfg.Symbols }

// Intervals is the configured interval set.
func (p *Pipeline) Intervals() []domrepo.Interval { return p.cfg.Intervals }

// Run executes one batch. Empty symbols or intervals fall back to the
// configured universe.
func (p *Pipeline) Run(ctx context.Context, trigger string, symbols []string, ivs []domrepo.Interval) (*models.RunSummary, error) {
	return p.run(ctx, uuid.NewString(), trigger, symbols, ivs)
}

// Start runs a batch in the background and returns its run id at once.
func (p *Pipeline) Start(trigger string, symbols []string, ivs []domrepo.Interval) string {
	id := uuid.NewString()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if _, err := p.run(context.Background(), id, trigger, symbols, ivs); err != nil {
			p.l.Error("background run failed", applogger.String("run_id", id), applogger.Error(err))
		}
	}()
	return id
}

// Wait blocks until background runs started with Start have finished.
func (p *Pipeline) Wait() { p.wg.Wait() }

func (p *Pipeline) run(ctx context.Context, id, trigger string, symbols []string, ivs []domrepo.Interval) (*models.RunSummary, error) {
	if len(symbols) == 0 {
		symbols = p.cfg.Symbols
	}
	if len(ivs) == 0 {
		ivs = p.cfg.Intervals
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.BatchTimeout)
	defer cancel()

	l := p.l.With(applogger.String("run_id", id), applogger.String("trigger", trigger))
	l.Info("pipeline run started",
		applogger.Strings("symbols", symbols),
		applogger.Int("intervals", len(ivs)),
	)

	run := &models.RunSummary{RunID: id, Trigger: trigger, StartedAt: time.Now().UTC()}
	units := Units(symbols, ivs)
	run.Stages = append(run.Stages,
		p.runner.Run(ctx, StageIndicators, units, p.stages.Indicators),
		p.runner.Run(ctx, StageChannel, units, p.stages.Channel),
	)

	// coarse intervals first so finer ones can read their trend
	var parts []models.StageSummary
	for _, iv := range domrepo.CoarseToFine(ivs) {
		parts = append(parts, p.runner.Run(ctx, StageRegime, Units(symbols, []domrepo.Interval{iv}), p.stages.Regime))
	}
	run.Stages = append(run.Stages,
		mergeSummaries(StageRegime, parts...),
		p.runner.Run(ctx, StageSignals, units, p.stages.Signals),
	)
	run.FinishedAt = time.Now().UTC()

	l.Info("pipeline run finished",
		applogger.Int("failed", run.Failed()),
		applogger.Duration("duration_ms", run.FinishedAt.Sub(run.StartedAt)),
	)

	if p.runs != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := p.runs.SaveRun(sctx, run); err != nil {
			l.Warn("run summary not cached", applogger.Error(err))
		}
	}
	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("batch deadline: %w", err)
	}
	return run, nil
}
