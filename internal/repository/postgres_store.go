package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
	pkgpg "FinSignal/pkg/postgres"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatch = 500

// Models lists the tables owned by the Postgres store, in migration order.
var Models = []any{&models.Indicator{}, &models.MarketRegime{}, &models.TradingSignal{}}

// PGStore implements the indicator, regime and signal stores on Postgres.
type PGStore struct {
	db *gorm.DB
	l  *applogger.Logger
}

func NewPGStore(pg *pkgpg.Client) *PGStore {
	return &PGStore{db: pg.DB(), l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *PGStore) SetLogger(l *applogger.Logger) { s.l = l }

func unitKey() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "bar_interval"}, {Name: "unix"}},
	}
}

func (s *PGStore) GetLatestIndicator(ctx context.Context, symbol string, iv domrepo.Interval) (*models.Indicator, error) {
	var row models.Indicator
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND bar_interval = ?", symbol, string(iv)).
		Order("unix DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetLatestIndicator %s %s: %w", symbol, iv, domrepo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetLatestIndicator: %w", err)
	}
	return &row, nil
}

func (s *PGStore) UpsertIndicators(ctx context.Context, symbol string, iv domrepo.Interval, rows []models.Indicator) error {
	return s.upsertRows(ctx, "UpsertIndicators", symbol, iv, rows, models.IndicatorColumns)
}

func (s *PGStore) UpsertChannel(ctx context.Context, symbol string, iv domrepo.Interval, rows []models.Indicator) error {
	return s.upsertRows(ctx, "UpsertChannel", symbol, iv, rows, models.ChannelColumns)
}

func (s *PGStore) upsertRows(ctx context.Context, op, symbol string, iv domrepo.Interval, rows []models.Indicator, cols []string) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].Symbol = symbol
		rows[i].Interval = string(iv)
	}
	onConflict := unitKey()
	onConflict.DoUpdates = clause.AssignmentColumns(cols)

	start := time.Now()
	if err := s.db.WithContext(ctx).Clauses(onConflict).CreateInBatches(rows, upsertBatch).Error; err != nil {
		s.l.Error("postgres upsert error",
			applogger.String("op", op),
			applogger.String("symbol", symbol),
			applogger.String("interval", string(iv)),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.l.Debug("postgres upsert ok",
		applogger.String("op", op),
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *PGStore) GetLatestRegime(ctx context.Context, symbol string, iv domrepo.Interval) (*models.MarketRegime, error) {
	var row models.MarketRegime
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND bar_interval = ?", symbol, string(iv)).
		Order("unix DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetLatestRegime %s %s: %w", symbol, iv, domrepo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetLatestRegime: %w", err)
	}
	return &row, nil
}

func (s *PGStore) UpsertRegime(ctx context.Context, symbol string, iv domrepo.Interval, row *models.MarketRegime) error {
	row.Symbol = symbol
	row.Interval = string(iv)
	onConflict := unitKey()
	onConflict.DoUpdates = clause.AssignmentColumns([]string{
		"timestamp", "regime_type", "trend_direction", "adx", "channel_in_pct",
		"channel_width_pct", "higher_tf_trend", "volume_ratio", "updated_at",
	})
	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(row).Error; err != nil {
		s.l.Error("postgres upsert error",
			applogger.String("op", "UpsertRegime"),
			applogger.String("symbol", symbol),
			applogger.String("interval", string(iv)),
			applogger.Error(err),
		)
		return fmt.Errorf("UpsertRegime: %w", err)
	}
	return nil
}

// GetActiveSignal returns nil without error when the unit has no active
// signal. Inside WithinTx the row is locked until commit.
func (s *PGStore) GetActiveSignal(ctx context.Context, symbol string, iv domrepo.Interval) (*models.TradingSignal, error) {
	var sig models.TradingSignal
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("symbol = ? AND bar_interval = ? AND status = ?", symbol, string(iv), models.StatusActive).
		Order("timestamp DESC").
		First(&sig).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetActiveSignal: %w", err)
	}
	return &sig, nil
}

func (s *PGStore) CreateSignal(ctx context.Context, sig *models.TradingSignal) error {
	if err := s.db.WithContext(ctx).Create(sig).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// another writer opened a signal for this unit first
			return fmt.Errorf("CreateSignal %s/%s: %w", sig.Symbol, sig.Interval, domrepo.ErrLocked)
		}
		return fmt.Errorf("CreateSignal: %w", err)
	}
	return nil
}

func (s *PGStore) CloseSignal(ctx context.Context, id int64, exitPrice decimal.Decimal, exitAt time.Time, pnlPct float64) error {
	return s.finish(ctx, "CloseSignal", id, map[string]any{
		"status":         models.StatusClosed,
		"exit_price":     decimal.NewNullDecimal(exitPrice),
		"exit_timestamp": exitAt,
		"pnl_pct":        pnlPct,
	})
}

func (s *PGStore) ExpireSignal(ctx context.Context, id int64) error {
	return s.finish(ctx, "ExpireSignal", id, map[string]any{"status": models.StatusExpired})
}

// finish moves an active signal to a terminal status.
func (s *PGStore) finish(ctx context.Context, op string, id int64, updates map[string]any) error {
	res := s.db.WithContext(ctx).
		Model(&models.TradingSignal{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", op, id, domrepo.ErrNotFound)
	}
	return nil
}

func (s *PGStore) GetSignal(ctx context.Context, id int64) (*models.TradingSignal, error) {
	var sig models.TradingSignal
	err := s.db.WithContext(ctx).First(&sig, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetSignal %d: %w", id, domrepo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetSignal: %w", err)
	}
	return &sig, nil
}

func (s *PGStore) ListSignals(ctx context.Context, f domrepo.SignalFilter) ([]models.TradingSignal, error) {
	var out []models.TradingSignal
	query := s.db.WithContext(ctx).Order("timestamp DESC, id DESC")

	if f.Symbol != "" {
		query = query.Where("symbol = ?", f.Symbol)
	}
	if f.Interval != "" {
		query = query.Where("bar_interval = ?", f.Interval)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("ListSignals: %w", err)
	}
	return out, nil
}

// ListLatestRegimes returns the newest regime of every unit, for display.
func (s *PGStore) ListLatestRegimes(ctx context.Context, symbol string) ([]models.MarketRegime, error) {
	var out []models.MarketRegime
	query := s.db.WithContext(ctx).
		Select("DISTINCT ON (symbol, bar_interval) *").
		Order("symbol, bar_interval, unix DESC")
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("ListLatestRegimes: %w", err)
	}
	return out, nil
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(domrepo.SignalStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PGStore{db: tx, l: s.l})
	})
}

var (
	_ domrepo.IndicatorStore = (*PGStore)(nil)
	_ domrepo.RegimeStore    = (*PGStore)(nil)
	_ domrepo.SignalStore    = (*PGStore)(nil)
)
