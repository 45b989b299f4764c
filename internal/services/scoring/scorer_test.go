package scoring

import (
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// history builds newest-first bars from closes. Volume is 1000 unless
// volumes overrides it for the leading bars.
func history(closes, volumes []float64) []models.PriceBar {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		ts := now.Add(-time.Duration(i) * 24 * time.Hour)
		vol := decimal.NewFromInt(1000)
		if i < len(volumes) {
			vol = decimal.NewFromFloat(volumes[i])
		}
		out[i] = models.PriceBar{
			Symbol:    "BTC/USD",
			Interval:  "1D",
			Unix:      ts.Unix(),
			Close:     decimal.NewFromFloat(c),
			Volume:    vol,
			Timestamp: ts,
		}
	}
	return out
}

// impacts indexes the breakdown adjustments by factor.
func impacts(sig *models.TradingSignal) map[string]float64 {
	out := make(map[string]float64)
	for _, a := range sig.ConfidenceBreakdown.Adjustments {
		out[a.Factor] = a.Impact
	}
	return out
}

// series is latest followed by n-1 bars at base, with one extreme bar at index 100.
func series(latest, base, extreme float64, n int) []float64 {
	out := make([]float64, n)
	out[0] = latest
	for i := 1; i < n; i++ {
		out[i] = base
	}
	out[100] = extreme
	return out
}

type fixture struct {
	eh, el    float64
	rsi       float64
	macd, sig float64
	regime    string
	direction string
	volRatio  float64
	closes    []float64
	volumes   []float64
}

func (f fixture) input() domsvc.ScoreInput {
	h := history(f.closes, f.volumes)
	return domsvc.ScoreInput{
		Symbol:    "BTC/USD",
		Interval:  "1D",
		Unix:      h[0].Unix,
		Timestamp: h[0].Timestamp,
		Indicator: &models.Indicator{
			EMAHigh33:  util.Ptr(f.eh),
			EMALow33:   util.Ptr(f.el),
			RSI:        util.Ptr(f.rsi),
			MACD:       util.Ptr(f.macd),
			SignalLine: util.Ptr(f.sig),
		},
		Regime: &models.MarketRegime{
			RegimeType:     f.regime,
			TrendDirection: f.direction,
			ADX:            31.2,
			VolumeRatio:    util.Ptr(f.volRatio),
		},
		History: h,
	}
}

func TestTrendFollowBuy(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 50, macd: 1.5, sig: 1.0,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1.3,
		closes: series(101, 101/1.02, 130, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalBuy, sig.SignalType)
	assert.Equal(t, models.StrategyTrendFollow, sig.Strategy)
	assert.Equal(t, 70.0, sig.Confidence)
	assert.Equal(t, models.StatusActive, sig.Status)
	require.True(t, sig.StopLoss.Valid)
	assert.True(t, sig.StopLoss.Decimal.Equal(decimal.NewFromInt(90)))
	assert.False(t, sig.TakeProfit.Valid)
	assert.Nil(t, sig.RewardPct)
	require.NotNil(t, sig.RiskPct)
	assert.InDelta(t, 10.89, *sig.RiskPct, 1e-9)
	assert.True(t, sig.EntryPrice.Equal(decimal.NewFromInt(101)))

	bd := sig.ConfidenceBreakdown
	require.NotNil(t, bd)
	assert.Equal(t, 50.0, bd.BaseScore)
	assert.Equal(t, 70.0, bd.FinalScore)
	assert.Equal(t, "proceed", bd.Decision)

	factors := make([]string, 0, len(bd.Adjustments))
	for _, a := range bd.Adjustments {
		factors = append(factors, a.Factor)
	}
	assert.Equal(t, []string{"channel_position", "deviation", "rsi", "regime", "volume", "macd"}, factors)
	assert.Contains(t, sig.TriggerReason[0], "Breakout above EMA high")
}

func TestTrendFollowSell(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 50, macd: -1.5, sig: -1.0,
		regime: models.RegimeTrending, direction: models.TrendDown, volRatio: 1.3,
		closes: series(89, 89*1.02, 70, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalSell, sig.SignalType)
	// 50 - 20 (channel) - 5 (deviation) + 15 + 10 + 10, no RSI bonus on sells
	assert.Equal(t, 60.0, sig.Confidence)
	_, ok := impacts(sig)["rsi"]
	assert.False(t, ok)
	assert.True(t, sig.StopLoss.Decimal.Equal(decimal.NewFromInt(100)))
	assert.InDelta(t, 12.36, *sig.RiskPct, 1e-9)
}

func TestSellWithoutDowntrendGetsNoRegimeBonus(t *testing.T) {
	f := fixture{
		eh: 100, el: 90, rsi: 50, macd: -1.5, sig: -1.0,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1.3,
		closes: series(89, 89*1.02, 70, 400),
	}
	sig := NewScorer(DefaultThresholds()).Score(f.input())
	assert.Equal(t, 45.0, sig.Confidence)
}

func TestLowConfidenceDowngradesToHold(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 85, macd: 1, sig: 2,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 0.8,
		closes: series(125, 99, 130, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalHold, sig.SignalType)
	assert.Equal(t, models.StrategyTrendFollow, sig.Strategy)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, "too risky to chase", sig.TriggerReason[0])
	assert.Equal(t, "confidence < 30, switch to HOLD", sig.ConfidenceBreakdown.Decision)
	assert.True(t, sig.StopLoss.Valid)
}

func TestCautiousBand(t *testing.T) {
	f := fixture{
		eh: 100, el: 90, rsi: 50, macd: 1, sig: 2,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1.0,
		closes: series(101, 101/1.02, 130, 400),
	}
	sig := NewScorer(DefaultThresholds()).Score(f.input())

	// 50 - 20 - 5 + 10 + 15
	assert.Equal(t, 50.0, sig.Confidence)
	assert.Equal(t, models.SignalBuy, sig.SignalType)

	f.rsi = 75
	sig = NewScorer(DefaultThresholds()).Score(f.input())
	assert.Equal(t, 25.0, sig.Confidence)
	assert.Equal(t, models.SignalHold, sig.SignalType)
}

func TestMeanReversionBuy(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 30,
		regime: models.RegimeRanging, direction: models.TrendNeutral, volRatio: 1,
		closes: series(90.5, 92, 96, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalBuy, sig.SignalType)
	assert.Equal(t, models.StrategyMeanReversion, sig.Strategy)
	assert.Equal(t, 80.0, sig.Confidence)
	assert.True(t, sig.TakeProfit.Decimal.Equal(decimal.NewFromInt(95)))
	assert.True(t, sig.StopLoss.Decimal.Equal(decimal.RequireFromString("88.2")))
	assert.InDelta(t, 2.54, *sig.RiskPct, 1e-9)
	assert.InDelta(t, 4.97, *sig.RewardPct, 1e-9)
}

func TestMeanReversionSell(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 60,
		regime: models.RegimeRanging, direction: models.TrendNeutral, volRatio: 1,
		closes: series(99.5, 97, 94, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalSell, sig.SignalType)
	// 45 + 15 (channel top) + 10 (RSI > 55)
	assert.Equal(t, 70.0, sig.Confidence)
	assert.True(t, sig.StopLoss.Decimal.Equal(decimal.NewFromInt(102)))
	assert.True(t, sig.TakeProfit.Decimal.Equal(decimal.NewFromInt(95)))
}

func TestMidChannelIsHold(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 50,
		regime: models.RegimeRanging, direction: models.TrendNeutral, volRatio: 1,
		closes: series(95, 95, 96, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)

	assert.Equal(t, models.SignalHold, sig.SignalType)
	assert.Equal(t, models.StrategyNone, sig.Strategy)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, []string{"Price in channel (ranging market)"}, sig.TriggerReason)
	assert.Equal(t, "no directional trigger", sig.ConfidenceBreakdown.Decision)
	assert.Equal(t, models.RegimeRanging, sig.ConfidenceBreakdown.Metrics["regime"])
	assert.False(t, sig.StopLoss.Valid)
	assert.True(t, sig.EntryPrice.Equal(decimal.NewFromInt(95)))
}

func TestTrendingInsideChannelIsHold(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 50,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1,
		closes: series(91, 95, 96, 400),
	}.input()

	sig := NewScorer(DefaultThresholds()).Score(in)
	assert.Equal(t, models.SignalHold, sig.SignalType)
	assert.Equal(t, models.StrategyNone, sig.Strategy)
}

func TestConfidenceStaysInBounds(t *testing.T) {
	sc := NewScorer(DefaultThresholds())
	for _, px := range []float64{60, 85, 89, 90.2, 95, 99.9, 101, 112, 160, 400} {
		for _, rsi := range []float64{5, 25, 50, 75, 95} {
			for _, regime := range []string{models.RegimeTrending, models.RegimeRanging} {
				in := fixture{
					eh: 100, el: 90, rsi: rsi, macd: 1, sig: 0,
					regime: regime, direction: models.TrendDown, volRatio: 2,
					closes: series(px, 95, 130, 400),
				}.input()
				sig := sc.Score(in)
				assert.GreaterOrEqual(t, sig.Confidence, 0.0)
				assert.LessOrEqual(t, sig.Confidence, 100.0)
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	in := fixture{
		eh: 100, el: 90, rsi: 50, macd: 1.5, sig: 1.0,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1.3,
		closes: series(101, 101/1.02, 130, 400),
	}.input()
	sc := NewScorer(DefaultThresholds())
	assert.Equal(t, sc.Score(in), sc.Score(in))
}

func TestTrendFollowSellRSIBands(t *testing.T) {
	cases := []struct {
		rsi    float64
		impact float64
		conf   float64
	}{
		{rsi: 25, impact: -15, conf: 45},
		{rsi: 35, impact: -10, conf: 50},
		{rsi: 45, impact: 0, conf: 60},
		{rsi: 60, impact: 0, conf: 60},
	}
	sc := NewScorer(DefaultThresholds())
	for _, tc := range cases {
		in := fixture{
			eh: 100, el: 90, rsi: tc.rsi, macd: -1.5, sig: -1.0,
			regime: models.RegimeTrending, direction: models.TrendDown, volRatio: 1.3,
			closes: series(89, 89*1.02, 70, 400),
		}.input()

		sig := sc.Score(in)
		assert.Equal(t, tc.impact, impacts(sig)["rsi"], "rsi %v", tc.rsi)
		assert.Equal(t, tc.conf, sig.Confidence, "rsi %v", tc.rsi)
	}
}

// breakoutCloses is a buy breakout at 101 over a base of 99 with a 160 high
// 100 bars back, so no gain or history band fires unless a case sets one.
func breakoutCloses(set map[int]float64) []float64 {
	closes := series(101, 99, 160, 400)
	for i, c := range set {
		closes[i] = c
	}
	return closes
}

// breakout scores a trending-up buy whose only fixed adjustments are the
// channel position (-20), deviation (-5) and regime (+15).
func breakout(closes, volumes []float64) *models.TradingSignal {
	return NewScorer(DefaultThresholds()).Score(fixture{
		eh: 100, el: 90, rsi: 65, macd: 1, sig: 2,
		regime: models.RegimeTrending, direction: models.TrendUp, volRatio: 1.0,
		closes: closes, volumes: volumes,
	}.input())
}

func TestRecentGainBands(t *testing.T) {
	cases := []struct {
		name   string
		set    map[int]float64
		gain10 float64
		gain20 float64
	}{
		{name: "flat", set: nil},
		{name: "10 bars above 20%", set: map[int]float64{10: 80}, gain10: -20},
		{name: "10 bars above 10%", set: map[int]float64{10: 90}, gain10: -10},
		{name: "10 bars above 7%", set: map[int]float64{10: 93}, gain10: -5},
		{name: "10 bars below 7%", set: map[int]float64{10: 96}},
		{name: "20 bars above 40%", set: map[int]float64{20: 70}, gain20: -15},
		{name: "20 bars above 20%", set: map[int]float64{20: 80}, gain20: -5},
		{name: "both windows", set: map[int]float64{10: 80, 20: 70}, gain10: -20, gain20: -15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := breakout(breakoutCloses(tc.set), nil)
			got := impacts(sig)

			assert.Equal(t, tc.gain10, got["gain_10"])
			assert.Equal(t, tc.gain20, got["gain_20"])
			assert.NotContains(t, got, "historical_position")
			assert.Equal(t, 40+tc.gain10+tc.gain20, sig.Confidence)
		})
	}
}

func TestHistoricalPositionBands(t *testing.T) {
	cases := []struct {
		name   string
		high   float64
		impact float64
	}{
		{name: "within 5% of the high", high: 104, impact: -20},
		{name: "within 15% of the high", high: 115, impact: -10},
		{name: "mid range", high: 160, impact: 0},
		{name: "more than 50% below the high", high: 250, impact: 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := breakout(breakoutCloses(map[int]float64{100: tc.high}), nil)

			assert.Equal(t, tc.impact, impacts(sig)["historical_position"])
			assert.Equal(t, 40+tc.impact, sig.Confidence)
		})
	}
}

func TestVolumeDivergencePenalizesChasing(t *testing.T) {
	// shrinking volume over the newest 5 bars against the 5 before
	volumes := []float64{500, 500, 500, 500, 500, 1000, 1000, 1000, 1000, 1000}

	t.Run("bearish divergence on a buy", func(t *testing.T) {
		closes := breakoutCloses(map[int]float64{1: 101, 2: 101, 3: 101, 4: 101, 5: 90, 6: 90, 7: 90, 8: 90, 9: 90})
		sig := breakout(closes, volumes)

		assert.Equal(t, -15.0, impacts(sig)["volume_divergence"])
		assert.Equal(t, DivergenceBearish, sig.ConfidenceBreakdown.Metrics["volume_divergence"])
		assert.Equal(t, 25.0, sig.Confidence)
		assert.Equal(t, models.SignalHold, sig.SignalType)
	})

	t.Run("bullish divergence on a sell", func(t *testing.T) {
		closes := series(89, 89*1.02, 70, 400)
		for i := 1; i < 5; i++ {
			closes[i] = 89
		}
		for i := 5; i < 10; i++ {
			closes[i] = 100
		}
		sig := NewScorer(DefaultThresholds()).Score(fixture{
			eh: 100, el: 90, rsi: 50, macd: -1.5, sig: -1.0,
			regime: models.RegimeTrending, direction: models.TrendDown, volRatio: 1.3,
			closes: closes, volumes: volumes,
		}.input())

		assert.Equal(t, -15.0, impacts(sig)["volume_divergence"])
		assert.Equal(t, DivergenceBullish, sig.ConfidenceBreakdown.Metrics["volume_divergence"])
		assert.Equal(t, 45.0, sig.Confidence)
	})

	t.Run("no divergence on steady volume", func(t *testing.T) {
		closes := breakoutCloses(map[int]float64{1: 101, 2: 101, 3: 101, 4: 101, 5: 90, 6: 90, 7: 90, 8: 90, 9: 90})
		sig := breakout(closes, nil)
		assert.NotContains(t, impacts(sig), "volume_divergence")
	})
}
