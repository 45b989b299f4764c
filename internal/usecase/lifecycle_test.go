package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignal(kind string, unix int64, price float64) *models.TradingSignal {
	return &models.TradingSignal{
		Symbol:     "ETH/USD",
		Interval:   "4H",
		Unix:       unix,
		Timestamp:  time.Unix(unix, 0).UTC(),
		SignalType: kind,
		Strategy:   models.StrategyTrendFollow,
		Confidence: 60,
		EntryPrice: decimal.NewFromFloat(price),
	}
}

func TestPnLPct(t *testing.T) {
	d := decimal.NewFromFloat
	assert.Equal(t, 10.0, PnLPct(models.SignalBuy, d(100), d(110)))
	assert.Equal(t, -10.0, PnLPct(models.SignalBuy, d(100), d(90)))
	assert.Equal(t, 10.0, PnLPct(models.SignalSell, d(100), d(90)))
	assert.Equal(t, -5.0, PnLPct(models.SignalSell, d(100), d(105)))
	assert.Equal(t, 10.0, PnLPct(models.SignalHold, d(100), d(90)))
	assert.Equal(t, -20.0, PnLPct(models.SignalHold, d(100), d(120)))
	assert.Equal(t, 0.0, PnLPct(models.SignalBuy, decimal.Zero, d(120)))
	assert.Equal(t, 33.33, PnLPct(models.SignalBuy, d(3), d(4)))
}

func TestLifecycleOppositeSignalClosesPrevious(t *testing.T) {
	store := newMemStore()
	pub := &fakePublisher{}
	m := newFakeMetrics()
	lc := NewLifecycle(store, pub, m, applogger.Nop())
	ctx := context.Background()

	tr, err := lc.Apply(ctx, newSignal(models.SignalBuy, 1000, 100))
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Nil(t, tr.Closed)
	assert.Nil(t, tr.Expired)

	tr, err = lc.Apply(ctx, newSignal(models.SignalSell, 2000, 112))
	require.NoError(t, err)
	require.NotNil(t, tr.Closed)
	assert.Equal(t, models.StatusClosed, tr.Closed.Status)
	assert.Equal(t, 12.0, *tr.Closed.PnLPct)

	first, err := store.GetSignal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, first.Status)
	assert.True(t, first.ExitPrice.Decimal.Equal(decimal.NewFromInt(112)))
	assert.Equal(t, 1, store.activeCount("ETH/USD", domrepo.Interval4H))

	assert.Equal(t, []string{models.EventSignalCreated, models.EventSignalClosed, models.EventSignalCreated}, pub.types())
	assert.Equal(t, []float64{12}, m.closed)
	assert.Equal(t, 2, m.signals)
}

func TestLifecycleClosesHoldAsShort(t *testing.T) {
	store := newMemStore()
	m := newFakeMetrics()
	lc := NewLifecycle(store, &fakePublisher{}, m, applogger.Nop())
	ctx := context.Background()

	_, err := lc.Apply(ctx, newSignal(models.SignalHold, 1000, 100))
	require.NoError(t, err)
	tr, err := lc.Apply(ctx, newSignal(models.SignalBuy, 2000, 90))
	require.NoError(t, err)

	require.NotNil(t, tr.Closed)
	assert.Equal(t, models.SignalHold, tr.Closed.SignalType)
	assert.Equal(t, 10.0, *tr.Closed.PnLPct)
	assert.Equal(t, []float64{10}, m.closed)
}

// staleReadStore hides the active signal, as if another writer committed it
// after this transaction read the unit.
type staleReadStore struct{ *memStore }

func (s staleReadStore) GetActiveSignal(context.Context, string, domrepo.Interval) (*models.TradingSignal, error) {
	return nil, nil
}

func (s staleReadStore) WithinTx(ctx context.Context, fn func(domrepo.SignalStore) error) error {
	return s.memStore.WithinTx(ctx, func(domrepo.SignalStore) error { return fn(s) })
}

func TestLifecycleRejectsSecondActiveSignal(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	_, err := NewLifecycle(store, &fakePublisher{}, newFakeMetrics(), applogger.Nop()).
		Apply(ctx, newSignal(models.SignalBuy, 1000, 100))
	require.NoError(t, err)

	lc := NewLifecycle(staleReadStore{store}, &fakePublisher{}, newFakeMetrics(), applogger.Nop())
	tr, err := lc.Apply(ctx, newSignal(models.SignalSell, 2000, 110))
	require.Error(t, err)
	assert.ErrorIs(t, err, domrepo.ErrLocked)
	assert.Nil(t, tr)
	assert.Equal(t, 1, store.activeCount("ETH/USD", "4H"))
}

func TestLifecycleSameTypeExpiresPrevious(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store, &fakePublisher{}, newFakeMetrics(), applogger.Nop())
	ctx := context.Background()

	_, err := lc.Apply(ctx, newSignal(models.SignalHold, 1000, 100))
	require.NoError(t, err)
	tr, err := lc.Apply(ctx, newSignal(models.SignalHold, 2000, 101))
	require.NoError(t, err)

	require.NotNil(t, tr.Expired)
	assert.Nil(t, tr.Closed)
	prev, err := store.GetSignal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, prev.Status)
	assert.Nil(t, prev.PnLPct)
	assert.Equal(t, 1, store.activeCount("ETH/USD", domrepo.Interval4H))
}

func TestLifecycleSameBarIsNoop(t *testing.T) {
	store := newMemStore()
	pub := &fakePublisher{}
	lc := NewLifecycle(store, pub, newFakeMetrics(), applogger.Nop())
	ctx := context.Background()

	_, err := lc.Apply(ctx, newSignal(models.SignalBuy, 1000, 100))
	require.NoError(t, err)
	tr, err := lc.Apply(ctx, newSignal(models.SignalSell, 1000, 90))
	require.NoError(t, err)
	assert.Nil(t, tr)

	all, err := store.ListSignals(ctx, domrepo.SignalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, pub.events, 1)
}

func TestLifecyclePublishFailureKeepsSignal(t *testing.T) {
	store := newMemStore()
	m := newFakeMetrics()
	lc := NewLifecycle(store, &fakePublisher{err: errors.New("broker down")}, m, applogger.Nop())

	tr, err := lc.Apply(context.Background(), newSignal(models.SignalBuy, 1000, 100))
	require.NoError(t, err)
	require.NotNil(t, tr.Created)
	assert.Equal(t, 1, store.activeCount("ETH/USD", domrepo.Interval4H))
	assert.Equal(t, 1, m.errors["event_publish"])
}

func TestLifecycleSingleActiveUnderConcurrency(t *testing.T) {
	store := newMemStore()
	lc := NewLifecycle(store, nil, newFakeMetrics(), applogger.Nop())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			kind := models.SignalBuy
			if i%2 == 0 {
				kind = models.SignalSell
			}
			_, _ = lc.Apply(ctx, newSignal(kind, int64(1000+i), 100+float64(i)))
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	assert.Equal(t, 1, store.activeCount("ETH/USD", domrepo.Interval4H))
}
