package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

const defaultListLimit = 50

// SignalQueryService serves read-only views of signals, regimes and runs.
type SignalQueryService struct {
	signals domrepo.SignalStore
	regimes domrepo.RegimeStore
	runs    domrepo.RunCache
	l       *applogger.Logger
}

func NewSignalQueryService(signals domrepo.SignalStore, regimes domrepo.RegimeStore, runs domrepo.RunCache, l *applogger.Logger) *SignalQueryService {
	return &SignalQueryService{signals: signals, regimes: regimes, runs: runs, l: l}
}

// ListSignals returns signals newest first.
func (s *SignalQueryService) ListSignals(ctx context.Context, req models.ListSignalsRequest) ([]models.TradingSignal, error) {
	f := domrepo.SignalFilter{
		Symbol:   strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Interval: req.Interval,
		Status:   req.Status,
		Limit:    req.Limit,
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	out, err := s.signals.ListSignals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return out, nil
}

func (s *SignalQueryService) GetSignal(ctx context.Context, id int64) (*models.TradingSignal, error) {
	sig, err := s.signals.GetSignal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get signal %d: %w", id, err)
	}
	return sig, nil
}

func (s *SignalQueryService) GetLatestRegime(ctx context.Context, req models.LatestRegimeRequest) (*models.MarketRegime, error) {
	iv, err := domrepo.ParseInterval(req.Interval)
	if err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	r, err := s.regimes.GetLatestRegime(ctx, symbol, iv)
	if err != nil {
		return nil, fmt.Errorf("latest regime %s %s: %w", symbol, iv, err)
	}
	return r, nil
}

// ListLatestRegimes returns the newest regime of every interval of a symbol.
func (s *SignalQueryService) ListLatestRegimes(ctx context.Context, symbol string) ([]models.MarketRegime, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	out, err := s.regimes.ListLatestRegimes(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("list regimes %s: %w", symbol, err)
	}
	return out, nil
}

// LastRun returns the cached summary of the previous pipeline run.
func (s *SignalQueryService) LastRun(ctx context.Context) (*models.RunSummary, error) {
	if s.runs == nil {
		return nil, domrepo.ErrNotFound
	}
	run, err := s.runs.LoadRun(ctx)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNotFound) {
			s.l.Warn("load last run", applogger.Error(err))
		}
		return nil, err
	}
	return run, nil
}
