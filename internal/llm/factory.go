package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates a Provider from configuration, wrapped with call logging.
// It returns ErrNotConfigured when the provider is "none" or lacks an API key.
// Requests are never retried.
func NewProvider(ctx context.Context, cfg Config, recorder CallRecorder, logger *zap.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)

	switch cfg.Provider {
	case "", "none":
		return nil, ErrNotConfigured
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
		}
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
		}
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, recorder, logger), nil
}
