package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"
	applogger "FinSignal/pkg/logger"
)

// CHPriceStore implements PriceStore backed by the ClickHouse ohlc_bars table.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, table string) *CHPriceStore {
	if table == "" {
		table = "ohlc_bars"
	}
	return &CHPriceStore{db: ch.DB(), table: table, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) GetPriceSeries(ctx context.Context, symbol string, iv domrepo.Interval, limit int) ([]models.PriceBar, error) {
	if !iv.IsValid() {
		return nil, fmt.Errorf("unsupported interval: %s", iv)
	}
	start := time.Now()
	const qtpl = `
        SELECT unix, open, high, low, close, volume, ts
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ?
        ORDER BY unix DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), symbol, string(iv), limit)
	if err != nil {
		s.logFailure("query", symbol, iv, limit, err)
		return nil, fmt.Errorf("get price series: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, limit)
	for rows.Next() {
		b := models.PriceBar{Symbol: symbol, Interval: string(iv)}
		if err := rows.Scan(&b.Unix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Timestamp); err != nil {
			s.logFailure("scan", symbol, iv, limit, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logFailure("rows", symbol, iv, limit, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	s.l.Debug("clickhouse price_series ok",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Int("limit", limit),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHPriceStore) logFailure(step, symbol string, iv domrepo.Interval, limit int, err error) {
	s.l.Error("clickhouse price_series "+step+" error",
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Int("limit", limit),
		applogger.Error(err),
	)
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)
