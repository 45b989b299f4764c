package postgres

import (
	"context"
	"errors"
	"time"

	applogger "FinSignal/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger routes gorm's query log into the application logger. Only
// failures and slow queries are reported.
type gormLogger struct {
	l    *applogger.Logger
	slow time.Duration
	mode gormlogger.LogLevel
}

func newGormLogger(l *applogger.Logger, slow time.Duration) *gormLogger {
	if l == nil {
		l = applogger.Nop()
	}
	return &gormLogger{l: l, slow: slow, mode: gormlogger.Warn}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.mode = level
	return &cp
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.mode >= gormlogger.Info {
		g.l.Info("gorm: "+msg, applogger.Any("args", args))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.mode >= gormlogger.Warn {
		g.l.Warn("gorm: "+msg, applogger.Any("args", args))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.mode >= gormlogger.Error {
		g.l.Error("gorm: "+msg, applogger.Any("args", args))
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.mode <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.mode >= gormlogger.Error:
		sql, rows := fc()
		g.l.Error("postgres query error",
			applogger.String("sql", sql),
			applogger.Int64("rows", rows),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
	case g.slow > 0 && elapsed > g.slow && g.mode >= gormlogger.Warn:
		sql, rows := fc()
		g.l.Warn("postgres slow query",
			applogger.String("sql", sql),
			applogger.Int64("rows", rows),
			applogger.Duration("duration_ms", elapsed),
		)
	}
}
