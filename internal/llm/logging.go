package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kuma/internal/models"
)

// CallRecorder persists model call audit records.
type CallRecorder interface {
	RecordLLMCall(ctx context.Context, call *models.LLMCall) error
}

// LoggingProvider is a decorator that logs and records every request.
type LoggingProvider struct {
	inner    Provider
	recorder CallRecorder
	logger   *zap.Logger
}

// WithLogging wraps a Provider with call logging. recorder may be nil.
func WithLogging(p Provider, recorder CallRecorder, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, recorder: recorder, logger: logger.Named("llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	call := &models.LLMCall{
		Purpose:   purpose,
		Model:     l.inner.ModelID(),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		call.InputTokens = resp.Usage.InputTokens
		call.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			call.Model = resp.Model
		}
	}
	if err != nil {
		call.Error = err.Error()
	}

	fields := []zap.Field{
		zap.String("purpose", call.Purpose),
		zap.String("model", call.Model),
		zap.Int64("latency_ms", call.LatencyMs),
		zap.Int("input_tokens", call.InputTokens),
		zap.Int("output_tokens", call.OutputTokens),
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.logger.Info("llm request completed", fields...)
	}

	if l.recorder != nil {
		// The request outcome does not depend on the audit write.
		if recErr := l.recorder.RecordLLMCall(context.WithoutCancel(ctx), call); recErr != nil {
			l.logger.Warn("failed to record llm call", zap.Error(recErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
