package scoring

import (
	"fmt"
	"math"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"
)

// meanReversion fades a touch of the channel bounds while the market ranges.
func (s *Scorer) meanReversion(in domsvc.ScoreInput, px, eh, el float64) *result {
	th := s.th
	width := eh - el
	if width <= 0 {
		return nil
	}
	mid := (eh + el) / 2

	var long bool
	switch {
	case math.Abs(px-el) < width*th.ReversionProximity:
		long = true
	case math.Abs(px-eh) < width*th.ReversionProximity:
		long = false
	default:
		return nil
	}

	card := newScorecard(th.ReversionBase)
	if long {
		card.note(fmt.Sprintf("Ranging market, near EMA low %.2f", el))
	} else {
		card.note(fmt.Sprintf("Ranging market, near EMA high %.2f", eh))
	}

	pos := ChannelPosition(px, eh, el)
	if x := orient(long, pos, mirror); x != nil {
		if b, ok := matchBelow(*x, th.ReversionChannelBelow); ok {
			edge := "bottom"
			if !long {
				edge = "top"
			}
			card.adjust("channel_position", pos, b.Impact, fmt.Sprintf("Channel %s %.0f%%", edge, *pos))
		}
	}

	rsi := in.Indicator.RSI
	if x := orient(long, rsi, mirror); x != nil {
		if b, ok := matchBelow(*x, th.ReversionRSIBelow); ok {
			word := "oversold"
			if !long {
				word = "overbought"
			}
			card.adjust("rsi", rsi, b.Impact, fmt.Sprintf("RSI %s %.1f", word, *rsi))
		}
	}

	conf := card.final()
	card.bd.Decision = "fade the band toward channel mid"
	card.bd.Metrics = metrics(in)
	card.bd.Metrics["channel_position"] = pos

	signalType := models.SignalBuy
	stop := el * (1 - th.ReversionStopBuffer)
	risk := (px - stop) / px * 100
	reward := (mid - px) / px * 100
	if !long {
		signalType = models.SignalSell
		stop = eh * (1 + th.ReversionStopBuffer)
		risk = (stop - px) / px * 100
		reward = (px - mid) / px * 100
	}

	return &result{
		signalType: signalType,
		strategy:   models.StrategyMeanReversion,
		confidence: conf,
		stopLoss:   util.Ptr(stop),
		takeProfit: util.Ptr(mid),
		riskPct:    util.Ptr(util.Round(risk, 2)),
		rewardPct:  util.Ptr(util.Round(reward, 2)),
		card:       card,
	}
}
