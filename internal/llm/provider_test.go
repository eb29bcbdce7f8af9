package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kuma/internal/models"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `{"a":1}`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: `{"b":2}`},
	)

	resp1, err := mock.Generate(context.Background(), Request{Prompt: "first"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp1.Text)
	assert.Equal(t, 10, resp1.Usage.InputTokens)

	resp2, err := mock.Generate(context.Background(), Request{Prompt: "second"})
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, resp2.Text)
	assert.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "second", mock.Calls[1].Prompt)
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail), "expected ErrProviderUnavailable, got %T", err)
}

func TestMockProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockProvider(MockResponse{Text: "unused"})
	_, err := mock.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

type recorderFunc func(ctx context.Context, call *models.LLMCall) error

func (f recorderFunc) RecordLLMCall(ctx context.Context, call *models.LLMCall) error {
	return f(ctx, call)
}

func TestLoggingProvider_RecordsCalls(t *testing.T) {
	var calls []*models.LLMCall
	rec := recorderFunc(func(_ context.Context, call *models.LLMCall) error {
		calls = append(calls, call)
		return nil
	})

	mock := NewMockProvider(
		MockResponse{Text: "ok", Usage: Usage{InputTokens: 3, OutputTokens: 4}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithLogging(mock, rec, zap.NewNop())

	ctx := WithPurpose(context.Background(), PurposeAssessment)
	_, err := p.Generate(ctx, Request{Prompt: "a"})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{Prompt: "b"})
	require.Error(t, err)

	require.Len(t, calls, 2)
	assert.True(t, calls[0].Success)
	assert.Equal(t, PurposeAssessment, calls[0].Purpose)
	assert.Equal(t, 3, calls[0].InputTokens)
	assert.False(t, calls[1].Success)
	assert.Contains(t, calls[1].Error, "rate limited")
	assert.Equal(t, "mock", p.ModelID())
}

func TestLoggingProvider_RecorderFailureDoesNotFailRequest(t *testing.T) {
	rec := recorderFunc(func(context.Context, *models.LLMCall) error {
		return errors.New("disk full")
	})
	p := WithLogging(NewMockProvider(MockResponse{Text: "ok"}), rec, nil)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, Config{Provider: "none"}, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(ctx, Config{Provider: "gemini"}, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewProvider(ctx, Config{Provider: "bard"}, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)

	p, err := NewProvider(ctx, Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ModelID())
	_, isLogging := p.(*LoggingProvider)
	assert.True(t, isLogging)
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-2.0-flash", geminiModels))
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
}

func TestPurposeFrom_Default(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
}
