package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	ConnIDKey    ctxKey = "conn_id"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// WithCtx returns the package logger annotated with whatever request
// identity the context carries.
func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value(RequestIDKey); v != nil {
		fields = append(fields, zap.Any("request_id", v))
	}
	if v := ctx.Value(ConnIDKey); v != nil {
		fields = append(fields, zap.Any("conn_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
