package service

import (
	"time"

	"FinSignal/internal/domain/models"
)

// IndicatorCalculator derives indicator rows from an oldest-to-newest series.
// Rows still inside the warm-up window are not returned.
type IndicatorCalculator interface {
	Calculate(bars []models.PriceBar) []models.Indicator
}

// ChannelCalculator derives the EMA(33) high/low channel for each bar past
// its warm-up window.
type ChannelCalculator interface {
	Calculate(bars []models.PriceBar) []models.Indicator
}

// RegimeInput is everything the classifier needs for one unit.
type RegimeInput struct {
	Symbol   string
	Interval string
	// Bars ordered oldest to newest; the last bar is the one classified.
	Bars          []models.PriceBar
	Latest        *models.Indicator
	HigherTFTrend *string
}

// RegimeClassifier labels a unit as trending or ranging.
type RegimeClassifier interface {
	Classify(in RegimeInput) (*models.MarketRegime, error)
}

// ScoreInput is everything the scorer needs for one unit.
type ScoreInput struct {
	Symbol    string
	Interval  string
	Unix      int64
	Timestamp time.Time
	Indicator *models.Indicator
	Regime    *models.MarketRegime
	// History ordered newest first; History[0] is the bar being scored.
	History []models.PriceBar
}

// SignalScorer turns the latest state of a unit into a scored signal.
// Implementations must be pure.
type SignalScorer interface {
	Score(in ScoreInput) *models.TradingSignal
}
