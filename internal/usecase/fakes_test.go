package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/shopspring/decimal"
)

type unitKey struct {
	symbol string
	iv     domrepo.Interval
}

// memStore implements every store interface in memory.
type memStore struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	bars    map[unitKey][]models.PriceBar
	ind     map[unitKey]map[int64]models.Indicator
	regimes map[unitKey][]models.MarketRegime
	signals []*models.TradingSignal
	nextID  int64

	// regimeReads records GetLatestRegime lookups in order.
	regimeReads []unitKey
}

func newMemStore() *memStore {
	return &memStore{
		bars:    make(map[unitKey][]models.PriceBar),
		ind:     make(map[unitKey]map[int64]models.Indicator),
		regimes: make(map[unitKey][]models.MarketRegime),
	}
}

func (m *memStore) GetPriceSeries(_ context.Context, symbol string, iv domrepo.Interval, limit int) ([]models.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bars := m.bars[unitKey{symbol, iv}]
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return append([]models.PriceBar(nil), bars...), nil
}

func (m *memStore) GetLatestIndicator(_ context.Context, symbol string, iv domrepo.Interval) (*models.Indicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.ind[unitKey{symbol, iv}]
	var best *models.Indicator
	for _, r := range rows {
		if best == nil || r.Unix > best.Unix {
			r := r
			best = &r
		}
	}
	if best == nil {
		return nil, domrepo.ErrNotFound
	}
	return best, nil
}

func (m *memStore) UpsertIndicators(_ context.Context, symbol string, iv domrepo.Interval, rows []models.Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unitKey{symbol, iv}
	if m.ind[k] == nil {
		m.ind[k] = make(map[int64]models.Indicator)
	}
	for _, r := range rows {
		cur := m.ind[k][r.Unix]
		r.EMAHigh33, r.EMALow33 = cur.EMAHigh33, cur.EMALow33
		m.ind[k][r.Unix] = r
	}
	return nil
}

func (m *memStore) UpsertChannel(_ context.Context, symbol string, iv domrepo.Interval, rows []models.Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unitKey{symbol, iv}
	if m.ind[k] == nil {
		m.ind[k] = make(map[int64]models.Indicator)
	}
	for _, r := range rows {
		cur, ok := m.ind[k][r.Unix]
		if !ok {
			cur = models.Indicator{Symbol: r.Symbol, Interval: r.Interval, Unix: r.Unix, Timestamp: r.Timestamp}
		}
		cur.EMAHigh33, cur.EMALow33 = r.EMAHigh33, r.EMALow33
		m.ind[k][r.Unix] = cur
	}
	return nil
}

func (m *memStore) GetLatestRegime(_ context.Context, symbol string, iv domrepo.Interval) (*models.MarketRegime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unitKey{symbol, iv}
	m.regimeReads = append(m.regimeReads, k)
	rs := m.regimes[k]
	if len(rs) == 0 {
		return nil, domrepo.ErrNotFound
	}
	r := rs[len(rs)-1]
	return &r, nil
}

func (m *memStore) UpsertRegime(_ context.Context, symbol string, iv domrepo.Interval, row *models.MarketRegime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unitKey{symbol, iv}
	rs := m.regimes[k]
	if n := len(rs); n > 0 && rs[n-1].Unix == row.Unix {
		rs[n-1] = *row
		return nil
	}
	m.regimes[k] = append(rs, *row)
	return nil
}

func (m *memStore) ListLatestRegimes(_ context.Context, symbol string) ([]models.MarketRegime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MarketRegime
	for k, rs := range m.regimes {
		if k.symbol == symbol && len(rs) > 0 {
			out = append(out, rs[len(rs)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval < out[j].Interval })
	return out, nil
}

func (m *memStore) GetActiveSignal(_ context.Context, symbol string, iv domrepo.Interval) (*models.TradingSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signals {
		if s.Symbol == symbol && s.Interval == string(iv) && s.Status == models.StatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateSignal(_ context.Context, s *models.TradingSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == models.StatusActive {
		for _, o := range m.signals {
			if o.Symbol == s.Symbol && o.Interval == s.Interval && o.Status == models.StatusActive {
				return fmt.Errorf("duplicate active signal: %w", domrepo.ErrLocked)
			}
		}
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.signals = append(m.signals, &cp)
	return nil
}

func (m *memStore) CloseSignal(_ context.Context, id int64, exitPrice decimal.Decimal, exitAt time.Time, pnl float64) error {
	return m.update(id, func(s *models.TradingSignal) {
		s.Status = models.StatusClosed
		s.ExitPrice = decimal.NewNullDecimal(exitPrice)
		s.ExitTimestamp = &exitAt
		s.PnLPct = &pnl
	})
}

func (m *memStore) ExpireSignal(_ context.Context, id int64) error {
	return m.update(id, func(s *models.TradingSignal) { s.Status = models.StatusExpired })
}

func (m *memStore) update(id int64, fn func(*models.TradingSignal)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signals {
		if s.ID == id && s.Status == models.StatusActive {
			fn(s)
			return nil
		}
	}
	return domrepo.ErrNotFound
}

func (m *memStore) GetSignal(_ context.Context, id int64) (*models.TradingSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.signals {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domrepo.ErrNotFound
}

func (m *memStore) ListSignals(_ context.Context, f domrepo.SignalFilter) ([]models.TradingSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TradingSignal
	for i := len(m.signals) - 1; i >= 0; i-- {
		s := m.signals[i]
		if (f.Symbol == "" || s.Symbol == f.Symbol) &&
			(f.Interval == "" || s.Interval == f.Interval) &&
			(f.Status == "" || s.Status == f.Status) {
			out = append(out, *s)
		}
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) WithinTx(_ context.Context, fn func(domrepo.SignalStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) activeCount(symbol string, iv domrepo.Interval) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.signals {
		if s.Symbol == symbol && s.Interval == string(iv) && s.Status == models.StatusActive {
			n++
		}
	}
	return n
}

type fakeMetrics struct {
	mu      sync.Mutex
	units   map[string]int
	signals int
	closed  []float64
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{units: make(map[string]int), errors: make(map[string]int)}
}

func (f *fakeMetrics) RecordUnit(stage, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units[stage+"/"+result]++
}

func (f *fakeMetrics) RecordStageLatency(string, float64) {}

func (f *fakeMetrics) RecordSignal(string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals++
}

func (f *fakeMetrics) RecordSignalClosed(_ string, pnl float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, pnl)
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[kind]++
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.SignalEvent
	err    error
}

func (p *fakePublisher) PublishSignalEvent(_ context.Context, ev models.SignalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fakeRuns struct {
	mu   sync.Mutex
	last *models.RunSummary
}

func (r *fakeRuns) SaveRun(_ context.Context, run *models.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = run
	return nil
}

func (r *fakeRuns) LoadRun(context.Context) (*models.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, domrepo.ErrNotFound
	}
	return r.last, nil
}

// lockAll refuses every unit.
type lockAll struct{}

func (lockAll) Acquire(context.Context, string, domrepo.Interval) (func(), error) {
	return nil, fmt.Errorf("held: %w", domrepo.ErrLocked)
}

// wave builds n oldest-first bars oscillating around a rising trend.
func wave(symbol string, iv domrepo.Interval, n int) []models.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	step := time.Duration(iv.Seconds()) * time.Second
	out := make([]models.PriceBar, n)
	for i := range out {
		base := 100 + float64(i)*0.5
		if i%4 < 2 {
			base += 3
		}
		ts := start.Add(time.Duration(i) * step)
		out[i] = models.PriceBar{
			Symbol:    symbol,
			Interval:  string(iv),
			Unix:      ts.Unix(),
			Open:      decimal.NewFromFloat(base),
			High:      decimal.NewFromFloat(base + 2),
			Low:       decimal.NewFromFloat(base - 2),
			Close:     decimal.NewFromFloat(base + 1),
			Volume:    decimal.NewFromInt(int64(1000 + i%7*100)),
			Timestamp: ts,
		}
	}
	return out
}
