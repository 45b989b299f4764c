package regime

import (
	"errors"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(closes []float64, volume float64) []models.PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		ts := start.Add(time.Duration(i) * 24 * time.Hour)
		out[i] = models.PriceBar{
			Symbol:    "ETH/USD",
			Interval:  "1D",
			Unix:      ts.Unix(),
			High:      decimal.NewFromFloat(c + 1),
			Low:       decimal.NewFromFloat(c - 1),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromFloat(volume),
			Timestamp: ts,
		}
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func indicator(adx, eh, el float64) *models.Indicator {
	return &models.Indicator{ADX: util.Ptr(adx), EMAHigh33: util.Ptr(eh), EMALow33: util.Ptr(el)}
}

func TestDecideScenarios(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	assert.Equal(t, models.RegimeRanging, c.Decide(15, 80))
	assert.Equal(t, models.RegimeTrending, c.Decide(30, 40))
	// tie-break on ADX alone
	assert.Equal(t, models.RegimeTrending, c.Decide(23, 60))
	assert.Equal(t, models.RegimeRanging, c.Decide(21, 60))
	assert.Equal(t, models.RegimeRanging, c.Decide(22, 90))
	// strict comparisons at the boundaries
	assert.Equal(t, models.RegimeTrending, c.Decide(25, 55))
	assert.Equal(t, models.RegimeRanging, c.Decide(20, 70))
}

func TestClassifyComputesMetrics(t *testing.T) {
	closes := flat(30, 100)
	// 5 of the last 20 closes break above the channel.
	for i := 25; i < 30; i++ {
		closes[i] = 120
	}
	in := domsvc.RegimeInput{
		Symbol:        "ETH/USD",
		Interval:      "1D",
		Bars:          bars(closes, 10),
		Latest:        indicator(30.456, 110, 90),
		HigherTFTrend: util.Ptr(models.TrendUp),
	}

	r, err := NewClassifier(DefaultThresholds()).Classify(in)
	require.NoError(t, err)

	assert.Equal(t, in.Bars[29].Unix, r.Unix)
	assert.Equal(t, 75.0, r.ChannelInPct)
	assert.Equal(t, 30.46, r.ADX)
	require.NotNil(t, r.ChannelWidthPct)
	assert.Equal(t, 22.22, *r.ChannelWidthPct)
	assert.Equal(t, models.TrendUp, r.TrendDirection)
	assert.Equal(t, models.RegimeTrending, r.RegimeType)
	require.NotNil(t, r.VolumeRatio)
	assert.Equal(t, 1.0, *r.VolumeRatio)
	assert.Equal(t, models.TrendUp, *r.HigherTFTrend)
}

func TestClassifyDecidesOnUnroundedADX(t *testing.T) {
	closes := flat(25, 100)
	// 8 of the last 20 closes above the channel: 60% inside
	for i := 17; i < 25; i++ {
		closes[i] = 120
	}
	in := domsvc.RegimeInput{Bars: bars(closes, 10), Latest: indicator(22.004, 110, 90)}

	r, err := NewClassifier(DefaultThresholds()).Classify(in)
	require.NoError(t, err)
	assert.Equal(t, models.RegimeTrending, r.RegimeType)
	assert.Equal(t, 22.0, r.ADX)
	assert.Equal(t, 60.0, r.ChannelInPct)
}

func TestClassifyRangingScenario(t *testing.T) {
	in := domsvc.RegimeInput{Bars: bars(flat(25, 100), 5), Latest: indicator(15, 105, 95)}

	r, err := NewClassifier(DefaultThresholds()).Classify(in)
	require.NoError(t, err)
	assert.Equal(t, models.RegimeRanging, r.RegimeType)
	assert.Equal(t, 100.0, r.ChannelInPct)
	assert.Equal(t, models.TrendNeutral, r.TrendDirection)
	assert.Nil(t, r.HigherTFTrend)
}

func TestClassifySkips(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	_, err := c.Classify(domsvc.RegimeInput{Bars: bars(flat(19, 100), 1), Latest: indicator(30, 110, 90)})
	assert.True(t, errors.Is(err, domrepo.ErrInsufficientData))

	_, err = c.Classify(domsvc.RegimeInput{Bars: bars(flat(20, 100), 1)})
	assert.True(t, errors.Is(err, domrepo.ErrMissingDependency))

	_, err = c.Classify(domsvc.RegimeInput{Bars: bars(flat(20, 100), 1), Latest: &models.Indicator{ADX: util.Ptr(30.0)}})
	assert.True(t, errors.Is(err, domrepo.ErrMissingDependency))
}

func TestChannelWidthZeroLowerBound(t *testing.T) {
	assert.Nil(t, ChannelWidthPct(10, 0))
}

func TestVolumeRatio(t *testing.T) {
	assert.Nil(t, VolumeRatio(flat(19, 1)))
	assert.Nil(t, VolumeRatio(flat(20, 0)))

	vols := flat(20, 10)
	vols[19] = 29 // mean is (19*10+29)/20 = 10.95
	got := VolumeRatio(vols)
	require.NotNil(t, got)
	assert.InDelta(t, 29/10.95, *got, 1e-9)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, models.TrendUp, Direction(111, 110, 90))
	assert.Equal(t, models.TrendDown, Direction(89, 110, 90))
	assert.Equal(t, models.TrendNeutral, Direction(110, 110, 90))
	assert.Equal(t, models.TrendNeutral, Direction(90, 110, 90))
}
