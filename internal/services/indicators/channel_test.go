package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelWarmup(t *testing.T) {
	for _, n := range []int{33, 34, 100} {
		closes := wave(n)
		highs := make([]float64, n)
		lows := make([]float64, n)
		for i, c := range closes {
			highs[i] = c + 2
			lows[i] = c - 2
		}
		eh, el := Channel(highs, lows)
		require.Len(t, eh, n)
		for i := 0; i < ChannelPeriod-1; i++ {
			assert.Nil(t, eh[i], "n=%d i=%d", n, i)
			assert.Nil(t, el[i], "n=%d i=%d", n, i)
		}
		for i := ChannelPeriod - 1; i < n; i++ {
			require.NotNil(t, eh[i], "n=%d i=%d", n, i)
			require.NotNil(t, el[i], "n=%d i=%d", n, i)
			assert.Greater(t, *eh[i], *el[i])
		}
	}
}

func TestChannelShortSeriesIsAllNil(t *testing.T) {
	eh, el := Channel(wave(32), wave(32))
	for i := range eh {
		assert.Nil(t, eh[i])
		assert.Nil(t, el[i])
	}
}

func TestChannelConstantSeries(t *testing.T) {
	highs := make([]float64, 50)
	lows := make([]float64, 50)
	for i := range highs {
		highs[i] = 110
		lows[i] = 90
	}
	eh, el := Channel(highs, lows)
	assert.InDelta(t, 110, *eh[49], 1e-9)
	assert.InDelta(t, 90, *el[49], 1e-9)
}

func TestChannelCalculatorRows(t *testing.T) {
	bars := makeBars(wave(80))
	c := NewChannelCalculator()

	rows := c.Calculate(bars)
	require.Len(t, rows, len(bars)-ChannelPeriod+1)
	assert.Equal(t, bars[ChannelPeriod-1].Unix, rows[0].Unix)
	for _, r := range rows {
		assert.True(t, r.HasChannel())
		assert.Nil(t, r.MACD)
	}
	assert.Equal(t, rows, c.Calculate(bars))
	assert.Empty(t, c.Calculate(bars[:ChannelPeriod-1]))
}
