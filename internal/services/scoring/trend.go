package scoring

import (
	"fmt"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"
)

// trendFollow scores a breakout out of the EMA channel. Buys are scored on
// raw inputs, sells mostly on mirrored ones so both sides share one rule set.
func (s *Scorer) trendFollow(in domsvc.ScoreInput, px, eh, el float64) *result {
	var long bool
	switch {
	case px > eh:
		long = true
	case px < el:
		long = false
	default:
		return nil
	}

	th := s.th
	ind, rg := in.Indicator, in.Regime
	card := newScorecard(th.TrendBase)
	if long {
		card.note(fmt.Sprintf("Breakout above EMA high %.2f", eh))
	} else {
		card.note(fmt.Sprintf("Breakdown below EMA low %.2f", el))
	}

	pos := ChannelPosition(px, eh, el)
	if x := orient(long, pos, mirror); x != nil {
		if b, ok := match(*x, th.ChannelPosAbove, th.ChannelPosBelow); ok {
			card.adjust("channel_position", pos, b.Impact, channelReason(*pos, b.Impact))
		}
	}

	bound := eh
	if !long {
		bound = el
	}
	dev := Deviation(px, bound)
	if x := orient(long, dev, neg); x != nil && *x >= 0 {
		impact := th.DeviationBeyond
		if b, ok := matchBelow(*x, th.DeviationBelow); ok {
			impact = b.Impact
		}
		card.adjust("deviation", dev, impact, fmt.Sprintf("Deviation %+.2f%% from the broken band", *dev))
	}

	if rsi := ind.RSI; rsi != nil {
		var b Band
		var ok bool
		if long {
			b, ok = match(*rsi, th.RSIAbove, th.RSIBelow)
		} else {
			b, ok = matchBelow(*rsi, th.SellRSIBelow)
		}
		if ok {
			card.adjust("rsi", rsi, b.Impact, rsiReason(long, *rsi, b.Impact))
		}
	}

	for _, g := range []struct {
		days  int
		bands []Band
	}{{10, th.Gain10Above}, {20, th.Gain20Above}} {
		gain := RecentGain(px, in.History, g.days)
		if x := orient(long, gain, neg); x != nil {
			if b, ok := matchAbove(*x, g.bands); ok {
				card.adjust(fmt.Sprintf("gain_%d", g.days), gain, b.Impact,
					fmt.Sprintf("%d-bar move %+.2f%%, chasing an extended run", g.days, *gain))
			}
		}
	}

	var dist, x *float64
	if long {
		dist = DistanceFromHigh(px, in.History, th.HistoryWindow)
		x = dist
	} else {
		dist = DistanceFromLow(px, in.History, th.HistoryWindow)
		x = neg(dist)
	}
	if x != nil {
		if b, ok := match(*x, th.HistoryAbove, th.HistoryBelow); ok {
			card.adjust("historical_position", dist, b.Impact, historyReason(long, *dist, b.Impact))
		}
	}

	div := VolumeDivergence(in.History, th.DivergenceWindow, th.DivergencePriceChange, th.DivergenceVolumeDrop)
	switch {
	case long && div == DivergenceBearish:
		card.adjust("volume_divergence", nil, th.DivergenceImpact, "Bearish divergence: price up on shrinking volume")
	case !long && div == DivergenceBullish:
		card.adjust("volume_divergence", nil, th.DivergenceImpact, "Bullish divergence: price down on shrinking volume")
	}

	if rg.IsTrending() && (long || rg.TrendDirection == models.TrendDown) {
		card.adjust("regime", nil, th.TrendingBonus, "Trending market")
	}

	if vr := rg.VolumeRatio; vr != nil && *vr > th.VolumeRatioMin {
		card.adjust("volume", vr, th.VolumeBonus, fmt.Sprintf("Volume confirmation %.1fx", *vr))
	}

	if m, sl := ind.MACD, ind.SignalLine; m != nil && sl != nil {
		switch {
		case long && *m > *sl:
			card.adjust("macd", m, th.MACDBonus, "MACD above signal line")
		case !long && *m < *sl:
			card.adjust("macd", m, th.MACDBonus, "MACD below signal line")
		}
	}

	conf := card.final()
	signalType := models.SignalBuy
	if !long {
		signalType = models.SignalSell
	}
	switch {
	case conf < th.HoldBelow:
		signalType = models.SignalHold
		card.prepend("too risky to chase")
		card.bd.Decision = fmt.Sprintf("confidence < %g, switch to HOLD", th.HoldBelow)
	case conf < th.CautiousBelow:
		card.prepend("cautious small position")
		card.bd.Decision = fmt.Sprintf("confidence < %g, cautious small position", th.CautiousBelow)
	default:
		card.bd.Decision = "proceed"
	}
	card.bd.Metrics = metrics(in)
	card.bd.Metrics["channel_position"] = pos
	card.bd.Metrics["deviation"] = dev
	card.bd.Metrics["volume_divergence"] = div

	stop, risk := el, (px-el)/px*100
	if !long {
		stop, risk = eh, (eh-px)/px*100
	}
	return &result{
		signalType: signalType,
		strategy:   models.StrategyTrendFollow,
		confidence: conf,
		stopLoss:   util.Ptr(stop),
		riskPct:    util.Ptr(util.Round(risk, 2)),
		card:       card,
	}
}

func orient(long bool, v *float64, flip func(*float64) *float64) *float64 {
	if long {
		return v
	}
	return flip(v)
}

func channelReason(pos, impact float64) string {
	if impact > 0 {
		return fmt.Sprintf("Channel position %.0f%%, low-risk entry", pos)
	}
	return fmt.Sprintf("Channel position %.0f%%, extended beyond the band", pos)
}

func rsiReason(long bool, rsi, impact float64) string {
	switch {
	case impact > 0:
		return fmt.Sprintf("RSI healthy %.1f", rsi)
	case long:
		return fmt.Sprintf("RSI overbought %.1f", rsi)
	default:
		return fmt.Sprintf("RSI oversold %.1f", rsi)
	}
}

func historyReason(long bool, dist, impact float64) string {
	switch {
	case long && impact < 0:
		return fmt.Sprintf("%.1f%% from the trailing high, near the top", dist)
	case long:
		return fmt.Sprintf("%.1f%% off the trailing high, buying off the lows", dist)
	case impact < 0:
		return fmt.Sprintf("%+.1f%% above the trailing low, near the bottom", dist)
	default:
		return fmt.Sprintf("%+.1f%% above the trailing low, selling from the highs", dist)
	}
}
