package indicators

import (
	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"

	"github.com/markcheno/go-talib"
)

const (
	PeriodMAFast  = 20
	PeriodMASlow  = 50
	PeriodEMAFast = 12
	PeriodEMASlow = 26
	PeriodSignal  = 9
	PeriodRSI     = 14
	PeriodADX     = 14

	// MACDLookback is the first index with a defined MACD signal line.
	MACDLookback = PeriodEMASlow - 1 + PeriodSignal - 1
	// ADXLookback is the first index with a defined ADX.
	ADXLookback = 2*PeriodADX - 1
)

// Series holds one value per input bar. A nil entry is inside the warm-up
// window of that indicator or undefined.
type Series struct {
	MA20      []*float64
	MA50      []*float64
	EMA12     []*float64
	EMA26     []*float64
	MACD      []*float64
	Signal    []*float64
	Histogram []*float64
	RSI       []*float64
	ADX       []*float64
}

// Calculator computes moving averages, MACD, RSI and ADX for one unit.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// Compute returns the full per-bar series for an oldest-to-newest input.
func (c *Calculator) Compute(closes, highs, lows []float64) Series {
	n := len(closes)
	s := Series{
		MA20:  movingAverage(closes, PeriodMAFast, talib.Sma),
		MA50:  movingAverage(closes, PeriodMASlow, talib.Sma),
		EMA12: movingAverage(closes, PeriodEMAFast, talib.Ema),
		EMA26: movingAverage(closes, PeriodEMASlow, talib.Ema),
		RSI:   RSI(closes, PeriodRSI),
	}

	s.MACD = make([]*float64, n)
	s.Signal = make([]*float64, n)
	s.Histogram = make([]*float64, n)
	if n > MACDLookback {
		macd, signal, hist := talib.Macd(closes, PeriodEMAFast, PeriodEMASlow, PeriodSignal)
		for i := MACDLookback; i < n; i++ {
			s.MACD[i] = value(macd[i])
			s.Signal[i] = value(signal[i])
			s.Histogram[i] = value(hist[i])
		}
	}

	s.ADX = make([]*float64, n)
	if n > ADXLookback && len(highs) == n && len(lows) == n {
		adx := talib.Adx(highs, lows, closes, PeriodADX)
		for i := ADXLookback; i < n; i++ {
			s.ADX[i] = value(adx[i])
		}
	}
	return s
}

// Calculate emits one indicator row per bar once the MACD signal line is
// defined. Earlier bars are withheld rather than zero-filled.
func (c *Calculator) Calculate(bars []models.PriceBar) []models.Indicator {
	if len(bars) <= MACDLookback {
		return nil
	}
	s := c.Compute(models.Closes(bars), models.Highs(bars), models.Lows(bars))

	rows := make([]models.Indicator, 0, len(bars)-MACDLookback)
	for i := MACDLookback; i < len(bars); i++ {
		b := bars[i]
		rows = append(rows, models.Indicator{
			Symbol:     b.Symbol,
			Interval:   b.Interval,
			Unix:       b.Unix,
			Timestamp:  b.Timestamp,
			MA20:       s.MA20[i],
			MA50:       s.MA50[i],
			EMA12:      s.EMA12[i],
			EMA26:      s.EMA26[i],
			MACD:       s.MACD[i],
			SignalLine: s.Signal[i],
			Histogram:  s.Histogram[i],
			RSI:        s.RSI[i],
			ADX:        s.ADX[i],
			Volume:     b.VolumeF(),
		})
	}
	return rows
}

func movingAverage(xs []float64, period int, fn func([]float64, int) []float64) []*float64 {
	out := make([]*float64, len(xs))
	if len(xs) < period {
		return out
	}
	vals := fn(xs, period)
	for i := period - 1; i < len(xs); i++ {
		out[i] = value(vals[i])
	}
	return out
}

func value(v float64) *float64 { return &v }

var _ domsvc.IndicatorCalculator = (*Calculator)(nil)
