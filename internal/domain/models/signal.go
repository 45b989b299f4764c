package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SignalBuy  = "buy"
	SignalSell = "sell"
	SignalHold = "hold"

	StrategyTrendFollow   = "trend_follow"
	StrategyMeanReversion = "mean_reversion"
	StrategyNone          = "none"

	StatusActive    = "active"
	StatusClosed    = "closed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Adjustment is one scoring factor applied to a confidence score.
type Adjustment struct {
	Factor string   `json:"factor"`
	Value  *float64 `json:"value"`
	Impact float64  `json:"impact"`
	Reason string   `json:"reason"`
}

// ConfidenceBreakdown is the audit trail of how a confidence was reached.
type ConfidenceBreakdown struct {
	BaseScore   float64        `json:"base_score"`
	Adjustments []Adjustment   `json:"adjustments"`
	FinalScore  float64        `json:"final_score"`
	Decision    string         `json:"decision"`
	Metrics     map[string]any `json:"metrics,omitempty"`
}

// TradingSignal is an emitted recommendation and its lifecycle state. At most
// one row per unit may be active; uq_signal_active_unit enforces it.
type TradingSignal struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol    string    `gorm:"size:20;not null;index:idx_signal_unit_status,priority:1;uniqueIndex:uq_signal_active_unit,priority:1,where:status = 'active'" json:"symbol"`
	Interval  string    `gorm:"column:bar_interval;size:4;not null;index:idx_signal_unit_status,priority:2;uniqueIndex:uq_signal_active_unit,priority:2,where:status = 'active'" json:"interval"`
	Unix      int64     `gorm:"not null" json:"unix"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	SignalType   string  `gorm:"size:4;not null" json:"signal_type"`
	Strategy     string  `gorm:"size:20;not null" json:"strategy"`
	MarketRegime string  `gorm:"size:10" json:"market_regime"`
	Confidence   float64 `gorm:"not null" json:"confidence"`

	EntryPrice decimal.Decimal     `gorm:"type:numeric(18,8);not null" json:"entry_price"`
	StopLoss   decimal.NullDecimal `gorm:"type:numeric(18,8)" json:"stop_loss"`
	TakeProfit decimal.NullDecimal `gorm:"type:numeric(18,8)" json:"take_profit"`
	RiskPct    *float64            `json:"risk_pct"`
	RewardPct  *float64            `json:"reward_pct"`

	TriggerReason       []string             `gorm:"type:jsonb;serializer:json" json:"trigger_reason"`
	ConfidenceBreakdown *ConfidenceBreakdown `gorm:"type:jsonb;serializer:json" json:"confidence_breakdown"`

	RSIValue    *float64 `json:"rsi_value"`
	MACDValue   *float64 `gorm:"column:macd_value" json:"macd_value"`
	VolumeRatio *float64 `json:"volume_ratio"`

	Status        string              `gorm:"size:10;not null;default:active;index:idx_signal_unit_status,priority:3" json:"status"`
	ExitPrice     decimal.NullDecimal `gorm:"type:numeric(18,8)" json:"exit_price"`
	ExitTimestamp *time.Time          `json:"exit_timestamp"`
	PnLPct        *float64            `gorm:"column:pnl_pct" json:"pnl_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TradingSignal) TableName() string { return "trading_signals" }

// Reason joins the trigger reasons for display.
func (s *TradingSignal) Reason() string { return strings.Join(s.TriggerReason, " | ") }

// IsLong reports whether the signal was a buy.
func (s *TradingSignal) IsLong() bool { return s.SignalType == SignalBuy }
