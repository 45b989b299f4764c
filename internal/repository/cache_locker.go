package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/cache"
	applogger "FinSignal/pkg/logger"
)

const lastRunKey = "pipeline:last_run"

// CacheLocker takes lock:unit:<symbol>:<interval> in the shared cache so one
// worker at a time owns a unit across processes.
type CacheLocker struct {
	c   cache.Service
	ttl time.Duration
	l   *applogger.Logger
}

func NewCacheLocker(c cache.Service, ttl time.Duration, l *applogger.Logger) *CacheLocker {
	return &CacheLocker{c: c, ttl: ttl, l: l}
}

func UnitLockKey(symbol string, iv domrepo.Interval) string {
	return cache.Key("lock", "unit", symbol, string(iv))
}

func (k *CacheLocker) Acquire(ctx context.Context, symbol string, iv domrepo.Interval) (func(), error) {
	key := UnitLockKey(symbol, iv)
	token, ok, err := k.c.TryLock(ctx, key, k.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domrepo.ErrLocked)
	}
	return func() {
		// the unit context may already be done; release on a fresh one
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := k.c.Unlock(ctx, key, token); err != nil {
			k.l.Warn("unit lock release failed", applogger.String("key", key), applogger.Error(err))
		}
	}, nil
}

// CacheRunStore keeps the last RunSummary in the shared cache.
type CacheRunStore struct {
	c   cache.Service
	ttl time.Duration
}

func NewCacheRunStore(c cache.Service, ttl time.Duration) *CacheRunStore {
	return &CacheRunStore{c: c, ttl: ttl}
}

func (s *CacheRunStore) SaveRun(ctx context.Context, run *models.RunSummary) error {
	return s.c.Set(ctx, lastRunKey, run, s.ttl)
}

func (s *CacheRunStore) LoadRun(ctx context.Context) (*models.RunSummary, error) {
	var run models.RunSummary
	if err := s.c.Get(ctx, lastRunKey, &run); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("last run: %w", domrepo.ErrNotFound)
		}
		return nil, fmt.Errorf("last run: %w", err)
	}
	return &run, nil
}

var (
	_ domrepo.UnitLocker = (*CacheLocker)(nil)
	_ domrepo.RunCache   = (*CacheRunStore)(nil)
)
