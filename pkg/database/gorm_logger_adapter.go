package database

import (
	"context"
	"errors"
	"time"

	"github.com/go-arcade/guildsync/pkg/log"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// GormLoggerAdapter sends gorm output to the zap logger. Statements run with a
// request id on the context are tagged with it. Record-not-found is not logged
// as a failure.
type GormLoggerAdapter struct {
	slow  time.Duration
	level logger.LogLevel
}

func NewGormLoggerAdapter(slow time.Duration, level logger.LogLevel) *GormLoggerAdapter {
	return &GormLoggerAdapter{slow: slow, level: level}
}

func (l *GormLoggerAdapter) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLoggerAdapter) sugar(ctx context.Context) *zap.SugaredLogger {
	return log.WithContext(ctx).Desugar().WithOptions(zap.AddCallerSkip(2)).Sugar().With("component", "gorm")
}

func (l *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.sugar(ctx).Infow(msg, "data", data)
	}
}

func (l *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.sugar(ctx).Warnw(msg, "data", data)
	}
}

func (l *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.sugar(ctx).Errorw(msg, "data", data)
	}
}

func (l *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, logger.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.sugar(ctx).Errorw("sql failed", "sql", sql, "rows", rows, "elapsedMs", elapsed.Milliseconds(), "error", err)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		l.sugar(ctx).Warnw("slow sql", "sql", sql, "rows", rows, "elapsedMs", elapsed.Milliseconds(), "thresholdMs", l.slow.Milliseconds())
	case l.level >= logger.Info:
		sql, rows := fc()
		l.sugar(ctx).Debugw("sql", "sql", sql, "rows", rows, "elapsedMs", elapsed.Milliseconds())
	}
}
