package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends SQL traces to the request logger found on ctx, so statements
// issued inside a workflow transaction carry the same request_id as the HTTP line.
type GormLogger struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger returns a GORM logger at level, flagging statements slower than slow
func NewGormLogger(level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	return &GormLogger{Level: level, SlowThreshold: slow}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.Level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Info, slog.LevelInfo, msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Warn, slog.LevelWarn, msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, gormlogger.Error, slog.LevelError, msg, data...)
}

func (l *GormLogger) printf(ctx context.Context, min gormlogger.LogLevel, lvl slog.Level, msg string, data ...interface{}) {
	if l.Level >= min {
		FromContext(ctx).Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var (
		lvl = slog.LevelDebug
		msg = "SQL"
	)
	switch {
	// missing ledger heads and absent cheques are ordinary lookups
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.Level >= gormlogger.Error:
		lvl, msg = slog.LevelError, "SQL Error"
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= gormlogger.Warn:
		lvl, msg = slog.LevelWarn, "Slow SQL"
	case l.Level < gormlogger.Info:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if lvl == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	FromContext(ctx).LogAttrs(ctx, lvl, msg, attrs...)
}
