package models

import "time"

// OHLCUpdatedEvent is published by the ingestion side once new bars land
// in the price store.
type OHLCUpdatedEvent struct {
	Symbol    string   `json:"symbol"`
	Intervals []string `json:"intervals,omitempty"`
	Time      string   `json:"time,omitempty"`
}

const (
	EventSignalCreated = "signal.created"
	EventSignalClosed  = "signal.closed"
)

// SignalEvent notifies downstream consumers about a lifecycle transition.
type SignalEvent struct {
	Type       string    `json:"type"`
	SignalID   int64     `json:"signal_id"`
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	SignalType string    `json:"signal_type"`
	Strategy   string    `json:"strategy"`
	Confidence float64   `json:"confidence"`
	Price      string    `json:"price"`
	PnLPct     *float64  `json:"pnl_pct,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// NewSignalEvent builds the event for a created or closed signal.
func NewSignalEvent(kind string, s *TradingSignal) SignalEvent {
	ev := SignalEvent{
		Type:       kind,
		SignalID:   s.ID,
		Symbol:     s.Symbol,
		Interval:   s.Interval,
		SignalType: s.SignalType,
		Strategy:   s.Strategy,
		Confidence: s.Confidence,
		Price:      s.EntryPrice.String(),
		Reason:     s.Reason(),
		At:         s.Timestamp,
	}
	if kind == EventSignalClosed {
		ev.PnLPct = s.PnLPct
		if s.ExitPrice.Valid {
			ev.Price = s.ExitPrice.Decimal.String()
		}
		if s.ExitTimestamp != nil {
			ev.At = *s.ExitTimestamp
		}
	}
	return ev
}
