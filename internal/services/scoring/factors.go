package scoring

import (
	"FinSignal/internal/domain/models"
	"FinSignal/pkg/util"
)

const (
	DivergenceNone    = ""
	DivergenceBearish = "BEARISH_DIV"
	DivergenceBullish = "BULLISH_DIV"
)

// ChannelPosition is where close sits in the channel, 0 at ema_low and 100 at
// ema_high. Nil when the channel is empty or inverted.
func ChannelPosition(px, eh, el float64) *float64 {
	if eh <= el {
		return nil
	}
	return util.Ptr(util.Round((px-el)/(eh-el)*100, 1))
}

// Deviation is the percent distance of close from a channel bound.
func Deviation(px, bound float64) *float64 {
	if bound == 0 {
		return nil
	}
	return util.Ptr(util.Round((px-bound)/bound*100, 2))
}

// RecentGain compares close with the close days bars ago. history is ordered
// newest first.
func RecentGain(px float64, history []models.PriceBar, days int) *float64 {
	if len(history) <= days {
		return nil
	}
	g, ok := util.PctChange(history[days].CloseF(), px)
	if !ok {
		return nil
	}
	return util.Ptr(util.Round(g, 2))
}

// Extremes returns the highest and lowest close over the newest window bars.
func Extremes(history []models.PriceBar, window int) (hi, lo float64, ok bool) {
	n := min(window, len(history))
	if n == 0 {
		return 0, 0, false
	}
	hi, lo = history[0].CloseF(), history[0].CloseF()
	for _, b := range history[1:n] {
		c := b.CloseF()
		hi = max(hi, c)
		lo = min(lo, c)
	}
	return hi, lo, true
}

// DistanceFromHigh is the percent distance of close below the trailing high.
func DistanceFromHigh(px float64, history []models.PriceBar, window int) *float64 {
	hi, _, ok := Extremes(history, window)
	if !ok || hi == 0 {
		return nil
	}
	return util.Ptr(util.Round((px-hi)/hi*100, 2))
}

// DistanceFromLow is the percent distance of close above the trailing low.
func DistanceFromLow(px float64, history []models.PriceBar, window int) *float64 {
	_, lo, ok := Extremes(history, window)
	if !ok || lo == 0 {
		return nil
	}
	return util.Ptr(util.Round((px-lo)/lo*100, 2))
}

// VolumeDivergence compares the average close and volume of the newest window
// bars with the window before it. Rising price on shrinking volume is bearish,
// falling price on shrinking volume is bullish.
func VolumeDivergence(history []models.PriceBar, window int, priceChange, volumeDrop float64) string {
	if window <= 0 || len(history) < 2*window {
		return DivergenceNone
	}
	recent, prior := history[:window], history[window:2*window]

	pr, pp := util.Mean(models.Closes(recent)), util.Mean(models.Closes(prior))
	vr, vp := util.Mean(models.Volumes(recent)), util.Mean(models.Volumes(prior))
	if pp == 0 || vp == 0 {
		return DivergenceNone
	}
	dp := (pr - pp) / pp
	dv := (vr - vp) / vp

	switch {
	case dp > priceChange && dv < volumeDrop:
		return DivergenceBearish
	case dp < -priceChange && dv < volumeDrop:
		return DivergenceBullish
	default:
		return DivergenceNone
	}
}

func neg(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return util.Ptr(-*v)
}

func mirror(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return util.Ptr(100 - *v)
}
