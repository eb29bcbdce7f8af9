package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type loggerKey struct{}

type traceKey struct{}

const traceIDField = "trace_id"

// New builds a zap logger for the given mode ("development" or "production").
func New(mode string) (*zap.Logger, error) {
	switch mode {
	case "production", "prod":
		return zap.NewProduction()
	case "development", "dev", "":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown log mode %q", mode)
	}
}

func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(traceKey{}).(string)
	return id, ok && id != ""
}

// FromContext returns the request logger, tagged with the trace id when one is
// present. It never returns nil.
func FromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*zap.Logger)
	if !ok || logger == nil {
		logger = zap.NewNop()
	}
	if id, ok := TraceID(ctx); ok {
		logger = logger.With(zap.String(traceIDField, id))
	}
	return logger
}
