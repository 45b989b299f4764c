package models

import "time"

const (
	RegimeTrending = "trending"
	RegimeRanging  = "ranging"

	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// MarketRegime classifies one (symbol, interval, unix) bar.
type MarketRegime struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol          string    `gorm:"size:20;not null;uniqueIndex:uq_regime_bar,priority:1" json:"symbol"`
	Interval        string    `gorm:"column:bar_interval;size:4;not null;uniqueIndex:uq_regime_bar,priority:2" json:"interval"`
	Unix            int64     `gorm:"not null;uniqueIndex:uq_regime_bar,priority:3" json:"unix"`
	Timestamp       time.Time `gorm:"not null" json:"timestamp"`
	RegimeType      string    `gorm:"size:10;not null" json:"regime_type"`
	TrendDirection  string    `gorm:"size:10;not null" json:"trend_direction"`
	ADX             float64   `gorm:"column:adx" json:"adx"`
	ChannelInPct    float64   `json:"channel_in_pct"`
	ChannelWidthPct *float64  `json:"channel_width_pct"`
	HigherTFTrend   *string   `gorm:"column:higher_tf_trend;size:10" json:"higher_tf_trend"`
	VolumeRatio     *float64  `json:"volume_ratio"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MarketRegime) TableName() string { return "market_regimes" }

func (r *MarketRegime) IsTrending() bool { return r != nil && r.RegimeType == RegimeTrending }
