package usecase

import (
	"context"
	"errors"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/indicators"
	"FinSignal/internal/services/regime"
	"FinSignal/internal/services/scoring"
)

const (
	StageIndicators = "indicators"
	StageChannel    = "channel"
	StageRegime     = "regime"
	StageSignals    = "signals"
)

// Stages holds the per-unit work of every pipeline stage.
type Stages struct {
	prices       domrepo.PriceStore
	indicators   domrepo.IndicatorStore
	regimes      domrepo.RegimeStore
	calc         domsvc.IndicatorCalculator
	channel      domsvc.ChannelCalculator
	classifier   domsvc.RegimeClassifier
	scorer       domsvc.SignalScorer
	lifecycle    *Lifecycle
	historyLimit int
}

func NewStages(
	prices domrepo.PriceStore,
	ind domrepo.IndicatorStore,
	regimes domrepo.RegimeStore,
	calc domsvc.IndicatorCalculator,
	channel domsvc.ChannelCalculator,
	classifier domsvc.RegimeClassifier,
	scorer domsvc.SignalScorer,
	lifecycle *Lifecycle,
	historyLimit int,
) *Stages {
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &Stages{
		prices:       prices,
		indicators:   ind,
		regimes:      regimes,
		calc:         calc,
		channel:      channel,
		classifier:   classifier,
		scorer:       scorer,
		lifecycle:    lifecycle,
		historyLimit: historyLimit,
	}
}

// Indicators recomputes the full indicator span of a unit and upserts it.
func (s *Stages) Indicators(ctx context.Context, u Unit) error {
	bars, err := s.prices.GetPriceSeries(ctx, u.Symbol, u.Interval, s.historyLimit)
	if err != nil {
		return err
	}
	if len(bars) <= indicators.MACDLookback {
		return fmt.Errorf("%d bars, need %d: %w", len(bars), indicators.MACDLookback+1, domrepo.ErrInsufficientData)
	}
	rows := s.calc.Calculate(bars)
	if len(rows) == 0 {
		return fmt.Errorf("no indicator rows: %w", domrepo.ErrInsufficientData)
	}
	return s.indicators.UpsertIndicators(ctx, u.Symbol, u.Interval, rows)
}

// Channel writes the EMA(33) channel bounds for every bar past warm-up.
func (s *Stages) Channel(ctx context.Context, u Unit) error {
	bars, err := s.prices.GetPriceSeries(ctx, u.Symbol, u.Interval, s.historyLimit)
	if err != nil {
		return err
	}
	if len(bars) < indicators.ChannelPeriod {
		return fmt.Errorf("%d bars, need %d: %w", len(bars), indicators.ChannelPeriod, domrepo.ErrInsufficientData)
	}
	return s.indicators.UpsertChannel(ctx, u.Symbol, u.Interval, s.channel.Calculate(bars))
}

// Regime classifies the latest bar of a unit. The coarser interval must be
// classified first for its trend to be picked up.
func (s *Stages) Regime(ctx context.Context, u Unit) error {
	bars, err := s.prices.GetPriceSeries(ctx, u.Symbol, u.Interval, regime.Lookback)
	if err != nil {
		return err
	}
	latest, err := s.latestIndicator(ctx, u)
	if err != nil {
		return err
	}

	var higher *string
	hr, err := s.regimes.GetLatestRegime(ctx, u.Symbol, u.Interval.Coarser())
	switch {
	case err == nil:
		higher = &hr.TrendDirection
	case !errors.Is(err, domrepo.ErrNotFound):
		return err
	}

	r, err := s.classifier.Classify(domsvc.RegimeInput{
		Symbol:        u.Symbol,
		Interval:      string(u.Interval),
		Bars:          bars,
		Latest:        latest,
		HigherTFTrend: higher,
	})
	if err != nil {
		return err
	}
	return s.regimes.UpsertRegime(ctx, u.Symbol, u.Interval, r)
}

// Signals scores the latest bar and hands the result to the lifecycle.
func (s *Stages) Signals(ctx context.Context, u Unit) error {
	bars, err := s.prices.GetPriceSeries(ctx, u.Symbol, u.Interval, scoring.HistoryLookback)
	if err != nil {
		return err
	}
	if len(bars) < scoring.MinHistory {
		return fmt.Errorf("%d bars, need %d: %w", len(bars), scoring.MinHistory, domrepo.ErrInsufficientData)
	}
	ind, err := s.latestIndicator(ctx, u)
	if err != nil {
		return err
	}
	if !ind.HasChannel() {
		return fmt.Errorf("latest indicator has no channel: %w", domrepo.ErrMissingDependency)
	}
	rg, err := s.regimes.GetLatestRegime(ctx, u.Symbol, u.Interval)
	if errors.Is(err, domrepo.ErrNotFound) {
		return fmt.Errorf("no regime: %w", domrepo.ErrMissingDependency)
	}
	if err != nil {
		return err
	}

	history := newestFirst(bars)
	sig := s.scorer.Score(domsvc.ScoreInput{
		Symbol:    u.Symbol,
		Interval:  string(u.Interval),
		Unix:      history[0].Unix,
		Timestamp: history[0].Timestamp,
		Indicator: ind,
		Regime:    rg,
		History:   history,
	})
	_, err = s.lifecycle.Apply(ctx, sig)
	return err
}

func (s *Stages) latestIndicator(ctx context.Context, u Unit) (*models.Indicator, error) {
	ind, err := s.indicators.GetLatestIndicator(ctx, u.Symbol, u.Interval)
	if errors.Is(err, domrepo.ErrNotFound) {
		return nil, fmt.Errorf("no indicators: %w", domrepo.ErrMissingDependency)
	}
	return ind, err
}

func newestFirst(bars []models.PriceBar) []models.PriceBar {
	out := make([]models.PriceBar, len(bars))
	for i, b := range bars {
		out[len(bars)-1-i] = b
	}
	return out
}
