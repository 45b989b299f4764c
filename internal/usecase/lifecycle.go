package usecase

import (
	"context"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/util"

	"github.com/shopspring/decimal"
)

// Transition is what Apply changed for one unit.
type Transition struct {
	Created *models.TradingSignal
	Closed  *models.TradingSignal
	Expired *models.TradingSignal
}

// Lifecycle keeps at most one active signal per (symbol, interval). A new
// signal of a different type closes the previous one with realized P&L; one
// of the same type expires it.
type Lifecycle struct {
	signals domrepo.SignalStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewLifecycle(signals domrepo.SignalStore, events domrepo.EventPublisher, metrics domrepo.Metrics, l *applogger.Logger) *Lifecycle {
	return &Lifecycle{signals: signals, events: events, metrics: metrics, l: l}
}

// Apply stores sig as the unit's active signal. Re-scoring the bar the active
// signal was emitted on is a no-op and returns nil.
func (lc *Lifecycle) Apply(ctx context.Context, sig *models.TradingSignal) (*Transition, error) {
	var tr *Transition
	err := lc.signals.WithinTx(ctx, func(tx domrepo.SignalStore) error {
		iv := domrepo.Interval(sig.Interval)
		prev, err := tx.GetActiveSignal(ctx, sig.Symbol, iv)
		if err != nil {
			return err
		}
		if prev != nil && prev.Unix >= sig.Unix {
			return nil
		}

		tr = &Transition{}
		if prev != nil {
			if prev.SignalType != sig.SignalType {
				pnl := PnLPct(prev.SignalType, prev.EntryPrice, sig.EntryPrice)
				if err := tx.CloseSignal(ctx, prev.ID, sig.EntryPrice, sig.Timestamp, pnl); err != nil {
					return err
				}
				prev.Status = models.StatusClosed
				prev.ExitPrice = decimal.NewNullDecimal(sig.EntryPrice)
				prev.ExitTimestamp = &sig.Timestamp
				prev.PnLPct = &pnl
				tr.Closed = prev
			} else {
				if err := tx.ExpireSignal(ctx, prev.ID); err != nil {
					return err
				}
				prev.Status = models.StatusExpired
				tr.Expired = prev
			}
		}

		sig.Status = models.StatusActive
		if err := tx.CreateSignal(ctx, sig); err != nil {
			return err
		}
		tr.Created = sig
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply signal %s %s: %w", sig.Symbol, sig.Interval, err)
	}
	if tr == nil {
		lc.l.Debug("signal already emitted for bar",
			applogger.String("symbol", sig.Symbol),
			applogger.String("interval", sig.Interval),
			applogger.Int64("unix", sig.Unix),
		)
		return nil, nil
	}

	lc.afterCommit(ctx, tr)
	return tr, nil
}

func (lc *Lifecycle) afterCommit(ctx context.Context, tr *Transition) {
	if c := tr.Closed; c != nil {
		lc.metrics.RecordSignalClosed(c.SignalType, *c.PnLPct)
		lc.l.Info("signal closed",
			applogger.Int64("id", c.ID),
			applogger.String("symbol", c.Symbol),
			applogger.String("interval", c.Interval),
			applogger.String("signal_type", c.SignalType),
			applogger.Float64("pnl_pct", *c.PnLPct),
		)
		lc.publish(ctx, models.NewSignalEvent(models.EventSignalClosed, c))
	}

	s := tr.Created
	lc.metrics.RecordSignal(s.SignalType, s.Strategy)
	lc.l.Info("signal created",
		applogger.Int64("id", s.ID),
		applogger.String("symbol", s.Symbol),
		applogger.String("interval", s.Interval),
		applogger.String("signal_type", s.SignalType),
		applogger.String("strategy", s.Strategy),
		applogger.Float64("confidence", s.Confidence),
	)
	lc.publish(ctx, models.NewSignalEvent(models.EventSignalCreated, s))
}

// publish never fails the unit; the signal is already committed.
func (lc *Lifecycle) publish(ctx context.Context, ev models.SignalEvent) {
	if lc.events == nil {
		return
	}
	if err := lc.events.PublishSignalEvent(ctx, ev); err != nil {
		lc.metrics.RecordError("event_publish")
		lc.l.Error("signal event publish failed",
			applogger.String("type", ev.Type),
			applogger.Int64("signal_id", ev.SignalID),
			applogger.Error(err),
		)
	}
}

// PnLPct is the realized return of a closed signal, rounded to 2 decimals.
// A buy gains when price rises. Every other type, hold included, is closed
// as a short and gains when price falls.
func PnLPct(signalType string, entry, exit decimal.Decimal) float64 {
	if entry.IsZero() {
		return 0
	}
	move := entry.Sub(exit)
	if signalType == models.SignalBuy {
		move = exit.Sub(entry)
	}
	return util.Round(move.Div(entry).Mul(decimal.NewFromInt(100)).InexactFloat64(), 2)
}
