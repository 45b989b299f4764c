package scoring

import "FinSignal/internal/domain/models"

// scorecard accumulates a confidence score with its audit trail.
type scorecard struct {
	score   float64
	reasons []string
	bd      models.ConfidenceBreakdown
}

func newScorecard(base float64) *scorecard {
	return &scorecard{
		score: base,
		bd: models.ConfidenceBreakdown{
			BaseScore:   base,
			Adjustments: []models.Adjustment{},
		},
	}
}

func (c *scorecard) note(reason string) { c.reasons = append(c.reasons, reason) }

func (c *scorecard) prepend(reason string) {
	c.reasons = append([]string{reason}, c.reasons...)
}

func (c *scorecard) adjust(factor string, value *float64, impact float64, reason string) {
	c.score += impact
	c.bd.Adjustments = append(c.bd.Adjustments, models.Adjustment{
		Factor: factor,
		Value:  value,
		Impact: impact,
		Reason: reason,
	})
	c.reasons = append(c.reasons, reason)
}

// final clamps the score into [0, 100] and records it.
func (c *scorecard) final() float64 {
	c.score = max(0, min(100, c.score))
	c.bd.FinalScore = c.score
	return c.score
}
