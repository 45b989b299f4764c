package indicators

import (
	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"

	"github.com/markcheno/go-talib"
)

// ChannelPeriod is the EMA length of the high/low channel.
const ChannelPeriod = 33

// ChannelCalculator builds the EMA(33) envelope of highs and lows.
type ChannelCalculator struct{}

func NewChannelCalculator() *ChannelCalculator { return &ChannelCalculator{} }

// Channel returns EMA(33) of highs and lows. The first ChannelPeriod-1
// positions are nil.
func Channel(highs, lows []float64) (emaHigh, emaLow []*float64) {
	return movingAverage(highs, ChannelPeriod, talib.Ema), movingAverage(lows, ChannelPeriod, talib.Ema)
}

// Calculate emits a row carrying only the channel bounds for every bar whose
// channel is defined.
func (c *ChannelCalculator) Calculate(bars []models.PriceBar) []models.Indicator {
	if len(bars) < ChannelPeriod {
		return nil
	}
	eh, el := Channel(models.Highs(bars), models.Lows(bars))

	rows := make([]models.Indicator, 0, len(bars)-ChannelPeriod+1)
	for i := ChannelPeriod - 1; i < len(bars); i++ {
		if eh[i] == nil || el[i] == nil {
			continue
		}
		b := bars[i]
		rows = append(rows, models.Indicator{
			Symbol:    b.Symbol,
			Interval:  b.Interval,
			Unix:      b.Unix,
			Timestamp: b.Timestamp,
			EMAHigh33: eh[i],
			EMALow33:  el[i],
			Volume:    b.VolumeF(),
		})
	}
	return rows
}

var _ domsvc.ChannelCalculator = (*ChannelCalculator)(nil)
