package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one OHLCV observation for a (symbol, interval, unix) key.
// Bars are written by the ingestion side and never modified here.
type PriceBar struct {
	Symbol    string          `json:"symbol"`
	Interval  string          `json:"interval"`
	Unix      int64           `json:"unix"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

func (b PriceBar) HighF() float64   { return b.High.InexactFloat64() }
func (b PriceBar) LowF() float64    { return b.Low.InexactFloat64() }
func (b PriceBar) CloseF() float64  { return b.Close.InexactFloat64() }
func (b PriceBar) VolumeF() float64 { return b.Volume.InexactFloat64() }

// Closes extracts close prices in the order of bars.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].CloseF()
	}
	return out
}

// Highs extracts high prices in the order of bars.
func Highs(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].HighF()
	}
	return out
}

// Lows extracts low prices in the order of bars.
func Lows(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].LowF()
	}
	return out
}

// Volumes extracts volumes in the order of bars.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].VolumeF()
	}
	return out
}
