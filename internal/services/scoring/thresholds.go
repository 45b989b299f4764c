package scoring

// Band applies Impact when a value crosses Limit. Bands are evaluated in
// order and the first match wins.
type Band struct {
	Limit  float64
	Impact float64
}

// Thresholds are the business rules of the scorer. Sell-side rules reuse the
// buy-side bands on mirrored inputs (100-position, 100-RSI, -gain). The one
// exception is trend-follow sells, which score RSI on SellRSIBelow.
type Thresholds struct {
	TrendBase     float64
	ReversionBase float64
	HoldBelow     float64
	CautiousBelow float64

	// Channel position, percent of channel width above ema_low.
	ChannelPosAbove []Band
	ChannelPosBelow []Band

	// Breakout distance beyond the broken channel bound, percent.
	DeviationBelow  []Band
	DeviationBeyond float64

	RSIAbove []Band
	RSIBelow []Band
	// SellRSIBelow penalizes selling into an oversold market.
	SellRSIBelow []Band

	Gain10Above []Band
	Gain20Above []Band

	// Distance from the trailing high, percent (non-positive).
	HistoryAbove  []Band
	HistoryBelow  []Band
	HistoryWindow int

	DivergenceWindow      int
	DivergencePriceChange float64
	DivergenceVolumeDrop  float64
	DivergenceImpact      float64

	TrendingBonus  float64
	VolumeRatioMin float64
	VolumeBonus    float64
	MACDBonus      float64

	ReversionProximity    float64
	ReversionChannelBelow []Band
	ReversionRSIBelow     []Band
	ReversionStopBuffer   float64
}

// DefaultThresholds returns the production rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrendBase:     50,
		ReversionBase: 45,
		HoldBelow:     30,
		CautiousBelow: 50,

		ChannelPosAbove: []Band{{200, -40}, {150, -30}, {100, -20}, {80, -10}},
		ChannelPosBelow: []Band{{40, 20}},

		DeviationBelow:  []Band{{3, -5}, {5, -15}, {10, -25}},
		DeviationBeyond: -40,

		RSIAbove: []Band{{80, -25}, {70, -15}},
		RSIBelow: []Band{{60, 10}},

		SellRSIBelow: []Band{{30, -15}, {40, -10}},

		Gain10Above: []Band{{20, -20}, {10, -10}, {7, -5}},
		Gain20Above: []Band{{40, -15}, {20, -5}},

		HistoryAbove:  []Band{{-5, -20}, {-15, -10}},
		HistoryBelow:  []Band{{-50, 15}},
		HistoryWindow: 365,

		DivergenceWindow:      5,
		DivergencePriceChange: 0.05,
		DivergenceVolumeDrop:  -0.2,
		DivergenceImpact:      -15,

		TrendingBonus:  15,
		VolumeRatioMin: 1.2,
		VolumeBonus:    10,
		MACDBonus:      10,

		ReversionProximity:    0.1,
		ReversionChannelBelow: []Band{{30, 15}},
		ReversionRSIBelow:     []Band{{35, 20}, {45, 10}},
		ReversionStopBuffer:   0.02,
	}
}

// Overrides replaces scalar thresholds loaded from configuration. Zero
// values keep the default.
type Overrides struct {
	TrendBase          float64
	ReversionBase      float64
	HoldBelow          float64
	CautiousBelow      float64
	TrendingBonus      float64
	VolumeRatioMin     float64
	VolumeBonus        float64
	MACDBonus          float64
	ReversionProximity float64
	HistoryWindow      int
}

// Apply returns th with every non-zero override set.
func (o Overrides) Apply(th Thresholds) Thresholds {
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	set(&th.TrendBase, o.TrendBase)
	set(&th.ReversionBase, o.ReversionBase)
	set(&th.HoldBelow, o.HoldBelow)
	set(&th.CautiousBelow, o.CautiousBelow)
	set(&th.TrendingBonus, o.TrendingBonus)
	set(&th.VolumeRatioMin, o.VolumeRatioMin)
	set(&th.VolumeBonus, o.VolumeBonus)
	set(&th.MACDBonus, o.MACDBonus)
	set(&th.ReversionProximity, o.ReversionProximity)
	if o.HistoryWindow > 0 {
		th.HistoryWindow = o.HistoryWindow
	}
	return th
}

func matchAbove(v float64, bands []Band) (Band, bool) {
	for _, b := range bands {
		if v > b.Limit {
			return b, true
		}
	}
	return Band{}, false
}

func matchBelow(v float64, bands []Band) (Band, bool) {
	for _, b := range bands {
		if v < b.Limit {
			return b, true
		}
	}
	return Band{}, false
}

// match checks the above-bands first, then the below-bands.
func match(v float64, above, below []Band) (Band, bool) {
	if b, ok := matchAbove(v, above); ok {
		return b, true
	}
	return matchBelow(v, below)
}
