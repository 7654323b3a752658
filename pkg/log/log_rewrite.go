package log

import (
	"context"

	"go.uber.org/zap"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/16 15:21
 * @file: log_rewrite.go
 * @description: global logger shortcuts
 */

func Info(args ...any) {
	get().Info(args...)
}

func Infof(format string, args ...any) {
	get().Infof(format, args...)
}

func Infow(msg string, keysAndValues ...any) {
	get().Infow(msg, keysAndValues...)
}

// WithContext returns a logger carrying the request id stored in ctx, if any.
func WithContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return get()
	}
	if rid, ok := ctx.Value(RequestIDKey).(string); ok && rid != "" {
		return get().With("requestId", rid)
	}
	return get()
}

func Debug(args ...any) {
	get().Debug(args...)
}

func Debugf(format string, args ...any) {
	get().Debugf(format, args...)
}

func Debugw(msg string, keysAndValues ...any) {
	get().Debugw(msg, keysAndValues...)
}

func Warn(args ...any) {
	get().Warn(args...)
}

func Warnf(format string, args ...any) {
	get().Warnf(format, args...)
}

func Warnw(msg string, keysAndValues ...any) {
	get().Warnw(msg, keysAndValues...)
}

func Error(args ...any) {
	get().Error(args...)
}

func Errorf(format string, args ...any) {
	get().Errorf(format, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	get().Errorw(msg, keysAndValues...)
}

func Fatal(args ...any) {
	get().Fatal(args...)
}

func Fatalf(format string, args ...any) {
	get().Fatalf(format, args...)
}

type ctxKey string

// RequestIDKey is the context key under which the HTTP layer stores the request id.
const RequestIDKey ctxKey = "requestId"
