package models

import "time"

// Indicator holds the derived values for one bar. Nil means the value is
// still inside its warm-up window or undefined for this bar.
type Indicator struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol    string    `gorm:"size:20;not null;uniqueIndex:uq_indicator_bar,priority:1" json:"symbol"`
	Interval  string    `gorm:"column:bar_interval;size:4;not null;uniqueIndex:uq_indicator_bar,priority:2" json:"interval"`
	Unix      int64     `gorm:"not null;uniqueIndex:uq_indicator_bar,priority:3" json:"unix"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`

	MA20       *float64 `gorm:"column:ma_20" json:"ma_20"`
	MA50       *float64 `gorm:"column:ma_50" json:"ma_50"`
	EMA12      *float64 `gorm:"column:ema_12" json:"ema_12"`
	EMA26      *float64 `gorm:"column:ema_26" json:"ema_26"`
	MACD       *float64 `gorm:"column:macd" json:"macd"`
	SignalLine *float64 `gorm:"column:signal_line" json:"signal_line"`
	Histogram  *float64 `gorm:"column:histogram" json:"histogram"`
	RSI        *float64 `gorm:"column:rsi" json:"rsi"`
	EMAHigh33  *float64 `gorm:"column:ema_high_33" json:"ema_high_33"`
	EMALow33   *float64 `gorm:"column:ema_low_33" json:"ema_low_33"`
	ADX        *float64 `gorm:"column:adx" json:"adx"`
	Volume     float64  `gorm:"column:volume" json:"volume"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Indicator) TableName() string { return "indicators" }

// HasChannel reports whether both EMA channel bounds are populated.
func (i *Indicator) HasChannel() bool {
	return i != nil && i.EMAHigh33 != nil && i.EMALow33 != nil
}

// IndicatorColumns are the columns owned by the indicator calculator.
var IndicatorColumns = []string{
	"timestamp", "ma_20", "ma_50", "ema_12", "ema_26", "macd", "signal_line",
	"histogram", "rsi", "adx", "volume", "updated_at",
}

// ChannelColumns are the columns owned by the EMA channel calculator.
var ChannelColumns = []string{"ema_high_33", "ema_low_33", "updated_at"}
