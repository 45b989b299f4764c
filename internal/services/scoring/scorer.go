package scoring

import (
	"fmt"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"

	"github.com/shopspring/decimal"
)

// MinHistory is the fewest bars a unit needs before it is scored.
// HistoryLookback bounds the bars loaded for one unit.
const (
	MinHistory      = 30
	HistoryLookback = 400
)

// Scorer picks a strategy from the regime and scores the latest bar.
type Scorer struct {
	th Thresholds
}

func NewScorer(th Thresholds) *Scorer { return &Scorer{th: th} }

type result struct {
	signalType string
	strategy   string
	confidence float64
	stopLoss   *float64
	takeProfit *float64
	riskPct    *float64
	rewardPct  *float64
	card       *scorecard
}

// Score returns a new active signal. Without a directional trigger the
// result is a hold with zero confidence.
func (s *Scorer) Score(in domsvc.ScoreInput) *models.TradingSignal {
	var res *result
	if len(in.History) > 0 && in.Indicator.HasChannel() && in.Regime != nil {
		px := in.History[0].CloseF()
		eh, el := *in.Indicator.EMAHigh33, *in.Indicator.EMALow33
		switch in.Regime.RegimeType {
		case models.RegimeTrending:
			res = s.trendFollow(in, px, eh, el)
		case models.RegimeRanging:
			res = s.meanReversion(in, px, eh, el)
		}
	}
	if res == nil {
		res = s.hold(in)
	}
	return s.build(in, res)
}

func (s *Scorer) hold(in domsvc.ScoreInput) *result {
	regime := "unknown"
	if in.Regime != nil {
		regime = in.Regime.RegimeType
	}
	card := newScorecard(0)
	card.note(fmt.Sprintf("Price in channel (%s market)", regime))
	card.bd.Decision = "no directional trigger"
	card.bd.Metrics = metrics(in)
	card.final()
	return &result{
		signalType: models.SignalHold,
		strategy:   models.StrategyNone,
		card:       card,
	}
}

func (s *Scorer) build(in domsvc.ScoreInput, res *result) *models.TradingSignal {
	sig := &models.TradingSignal{
		Symbol:              in.Symbol,
		Interval:            in.Interval,
		Unix:                in.Unix,
		Timestamp:           in.Timestamp,
		SignalType:          res.signalType,
		Strategy:            res.strategy,
		Confidence:          res.confidence,
		StopLoss:            nullPrice(res.stopLoss),
		TakeProfit:          nullPrice(res.takeProfit),
		RiskPct:             res.riskPct,
		RewardPct:           res.rewardPct,
		TriggerReason:       res.card.reasons,
		ConfidenceBreakdown: &res.card.bd,
		Status:              models.StatusActive,
	}
	if len(in.History) > 0 {
		sig.EntryPrice = in.History[0].Close
	}
	if in.Regime != nil {
		sig.MarketRegime = in.Regime.RegimeType
		sig.VolumeRatio = in.Regime.VolumeRatio
	}
	if in.Indicator != nil {
		sig.RSIValue = util.RoundPtr(in.Indicator.RSI, 2)
		sig.MACDValue = in.Indicator.MACD
	}
	return sig
}

func metrics(in domsvc.ScoreInput) map[string]any {
	m := map[string]any{}
	if in.Indicator != nil {
		m["rsi"] = util.RoundPtr(in.Indicator.RSI, 1)
		m["macd"] = util.RoundPtr(in.Indicator.MACD, 4)
	}
	if in.Regime != nil {
		m["regime"] = in.Regime.RegimeType
		m["adx"] = util.Round(in.Regime.ADX, 1)
	}
	return m
}

func nullPrice(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v).Round(8))
}

var _ domsvc.SignalScorer = (*Scorer)(nil)
