package regime

import (
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/util"
)

const (
	// Lookback is how many trailing bars the stage loads per unit.
	Lookback = 50
	// MinBars is the fewest bars a unit needs to be classified.
	MinBars = 20
	// Window is the trailing window for channel occupancy and volume average.
	Window = 20
)

// Thresholds are the ADX and channel occupancy cut-offs of the decision rule.
type Thresholds struct {
	TrendADX      float64 `yaml:"trend_adx" default:"25"`
	TrendMaxInPct float64 `yaml:"trend_max_in_pct" default:"55"`
	RangeADX      float64 `yaml:"range_adx" default:"20"`
	RangeMinInPct float64 `yaml:"range_min_in_pct" default:"70"`
	TieBreakADX   float64 `yaml:"tie_break_adx" default:"22"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TrendADX:      25,
		TrendMaxInPct: 55,
		RangeADX:      20,
		RangeMinInPct: 70,
		TieBreakADX:   22,
	}
}

// Classifier labels a unit as trending or ranging from ADX, channel
// occupancy and the higher timeframe direction.
type Classifier struct {
	th Thresholds
}

func NewClassifier(th Thresholds) *Classifier { return &Classifier{th: th} }

func (c *Classifier) Classify(in domsvc.RegimeInput) (*models.MarketRegime, error) {
	if len(in.Bars) < MinBars {
		return nil, fmt.Errorf("%d bars, need %d: %w", len(in.Bars), MinBars, domrepo.ErrInsufficientData)
	}
	ind := in.Latest
	if ind == nil || ind.ADX == nil || !ind.HasChannel() {
		return nil, fmt.Errorf("latest indicator lacks adx or channel: %w", domrepo.ErrMissingDependency)
	}

	eh, el := *ind.EMAHigh33, *ind.EMALow33
	latest := in.Bars[len(in.Bars)-1]
	recent := in.Bars[len(in.Bars)-Window:]

	// decided on raw values, rounded only for storage
	inPct := ChannelInPct(models.Closes(recent), eh, el)
	adx := *ind.ADX

	return &models.MarketRegime{
		Symbol:          in.Symbol,
		Interval:        in.Interval,
		Unix:            latest.Unix,
		Timestamp:       latest.Timestamp,
		RegimeType:      c.Decide(adx, inPct),
		TrendDirection:  Direction(latest.CloseF(), eh, el),
		ADX:             util.Round(adx, 2),
		ChannelInPct:    util.Round(inPct, 2),
		ChannelWidthPct: util.RoundPtr(ChannelWidthPct(eh, el), 2),
		HigherTFTrend:   in.HigherTFTrend,
		VolumeRatio:     util.RoundPtr(VolumeRatio(models.Volumes(in.Bars)), 2),
	}, nil
}

// Decide applies the ADX/occupancy rule with a tie-break on ADX alone.
func (c *Classifier) Decide(adx, inPct float64) string {
	switch {
	case adx > c.th.TrendADX && inPct < c.th.TrendMaxInPct:
		return models.RegimeTrending
	case adx < c.th.RangeADX && inPct > c.th.RangeMinInPct:
		return models.RegimeRanging
	case adx > c.th.TieBreakADX:
		return models.RegimeTrending
	default:
		return models.RegimeRanging
	}
}

// ChannelInPct is the share of closes inside [el, eh], in percent.
func ChannelInPct(closes []float64, eh, el float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	in := 0
	for _, c := range closes {
		if el <= c && c <= eh {
			in++
		}
	}
	return float64(in) / float64(len(closes)) * 100
}

// ChannelWidthPct is the channel width relative to its lower bound. Nil when
// the lower bound is zero.
func ChannelWidthPct(eh, el float64) *float64 {
	if el == 0 {
		return nil
	}
	return util.Ptr((eh - el) / el * 100)
}

// Direction places close above, below or inside the channel.
func Direction(close, eh, el float64) string {
	switch {
	case close > eh:
		return models.TrendUp
	case close < el:
		return models.TrendDown
	default:
		return models.TrendNeutral
	}
}

// VolumeRatio divides the latest volume by the mean of the trailing window,
// latest bar included. Nil with fewer than Window bars or a zero mean.
func VolumeRatio(volumes []float64) *float64 {
	if len(volumes) < Window {
		return nil
	}
	avg := util.Mean(volumes[len(volumes)-Window:])
	if avg == 0 {
		return nil
	}
	return util.Ptr(volumes[len(volumes)-1] / avg)
}

var _ domsvc.RegimeClassifier = (*Classifier)(nil)
