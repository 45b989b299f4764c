package repository

import "fmt"

// Interval is a bar resolution understood by the pipeline.
type Interval string

const (
	Interval1H Interval = "1H"
	Interval4H Interval = "4H"
	Interval1D Interval = "1D"
	Interval1W Interval = "1W"
)

// AllIntervals lists intervals finest first.
var AllIntervals = []Interval{Interval1H, Interval4H, Interval1D, Interval1W}

// IsValid returns true if iv is a supported interval.
func (iv Interval) IsValid() bool {
	switch iv {
	case Interval1H, Interval4H, Interval1D, Interval1W:
		return true
	default:
		return false
	}
}

// Seconds returns the bar length in seconds.
func (iv Interval) Seconds() int64 {
	switch iv {
	case Interval1H:
		return 3600
	case Interval4H:
		return 14400
	case Interval1D:
		return 86400
	case Interval1W:
		return 604800
	default:
		return 0
	}
}

// Coarser returns the next larger interval. 1W maps to itself.
func (iv Interval) Coarser() Interval {
	switch iv {
	case Interval1H:
		return Interval4H
	case Interval4H:
		return Interval1D
	default:
		return Interval1W
	}
}

func (iv Interval) String() string { return string(iv) }

// ParseInterval validates a raw interval string.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if !iv.IsValid() {
		return "", fmt.Errorf("unsupported interval: %q", s)
	}
	return iv, nil
}

// ParseIntervals validates a list of raw intervals. An empty list yields all.
func ParseIntervals(ss []string) ([]Interval, error) {
	if len(ss) == 0 {
		return append([]Interval(nil), AllIntervals...), nil
	}
	out := make([]Interval, 0, len(ss))
	for _, s := range ss {
		iv, err := ParseInterval(s)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

// CoarseToFine orders intervals so that coarser ones come first, which the
// regime stage needs for its higher timeframe lookups.
func CoarseToFine(ivs []Interval) []Interval {
	out := make([]Interval, 0, len(ivs))
	for i := len(AllIntervals) - 1; i >= 0; i-- {
		for _, iv := range ivs {
			if iv == AllIntervals[i] {
				out = append(out, iv)
				break
			}
		}
	}
	return out
}
