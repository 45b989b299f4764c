package util

import "testing"

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{1.234, 2, 1.23},
		{1.235, 1, 1.2},
		{-2.5, 0, -3},
		{66.666, 1, 66.7},
	}
	for _, c := range cases {
		if got := Round(c.in, c.places); got != c.want {
			t.Fatalf("Round(%v,%d)=%v want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestRoundPtrNil(t *testing.T) {
	if RoundPtr(nil, 2) != nil {
		t.Fatalf("expected nil")
	}
}

func TestPctChange(t *testing.T) {
	if _, ok := PctChange(0, 10); ok {
		t.Fatalf("expected !ok for zero base")
	}
	got, ok := PctChange(100, 110)
	if !ok || got != 10 {
		t.Fatalf("got %v", got)
	}
}
