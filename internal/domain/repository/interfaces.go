package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/shopspring/decimal"
)

// PriceStore provides read-only access to OHLCV history.
type PriceStore interface {
	// GetPriceSeries returns the newest limit bars ordered oldest to newest.
	GetPriceSeries(ctx context.Context, symbol string, iv Interval, limit int) ([]models.PriceBar, error)
}

type IndicatorStore interface {
	GetLatestIndicator(ctx context.Context, symbol string, iv Interval) (*models.Indicator, error)
	// UpsertIndicators writes indicator columns only; channel columns are kept.
	UpsertIndicators(ctx context.Context, symbol string, iv Interval, rows []models.Indicator) error
	// UpsertChannel writes ema_high_33/ema_low_33 only; other columns are kept.
	UpsertChannel(ctx context.Context, symbol string, iv Interval, rows []models.Indicator) error
}

type RegimeStore interface {
	GetLatestRegime(ctx context.Context, symbol string, iv Interval) (*models.MarketRegime, error)
	UpsertRegime(ctx context.Context, symbol string, iv Interval, row *models.MarketRegime) error
	// ListLatestRegimes returns the newest regime per (symbol, interval).
	ListLatestRegimes(ctx context.Context, symbol string) ([]models.MarketRegime, error)
}

// SignalFilter narrows ListSignals. Empty fields match everything.
type SignalFilter struct {
	Symbol   string
	Interval string
	Status   string
	Limit    int
}

type SignalStore interface {
	// GetActiveSignal returns nil, nil when the unit has no active signal.
	GetActiveSignal(ctx context.Context, symbol string, iv Interval) (*models.TradingSignal, error)
	CreateSignal(ctx context.Context, s *models.TradingSignal) error
	CloseSignal(ctx context.Context, id int64, exitPrice decimal.Decimal, exitAt time.Time, pnlPct float64) error
	ExpireSignal(ctx context.Context, id int64) error
	GetSignal(ctx context.Context, id int64) (*models.TradingSignal, error)
	ListSignals(ctx context.Context, f SignalFilter) ([]models.TradingSignal, error)
	// WithinTx runs fn against a store bound to a single transaction.
	WithinTx(ctx context.Context, fn func(SignalStore) error) error
}

// EventPublisher emits lifecycle events to other processes.
type EventPublisher interface {
	PublishSignalEvent(ctx context.Context, ev models.SignalEvent) error
	Close() error
}

// UnitLocker serializes work on one (symbol, interval) across workers.
type UnitLocker interface {
	Acquire(ctx context.Context, symbol string, iv Interval) (release func(), err error)
}

// RunCache keeps the summary of the last pipeline run.
type RunCache interface {
	SaveRun(ctx context.Context, run *models.RunSummary) error
	LoadRun(ctx context.Context) (*models.RunSummary, error)
}

type Metrics interface {
	RecordUnit(stage, result string)
	RecordStageLatency(stage string, seconds float64)
	RecordSignal(signalType, strategy string)
	RecordSignalClosed(signalType string, pnlPct float64)
	RecordError(kind string)
}
