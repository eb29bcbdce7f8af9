// Package llm wraps the generative model vendors behind one Provider interface.
package llm

import "context"

// Provider is the core abstraction for model interaction.
type Provider interface {
	// Generate sends one prompt and returns the model's text. A provider makes
	// exactly one attempt; callers decide what to do on failure.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt. Optional.
	System string

	// Prompt is the single user turn.
	Prompt string

	// JSON asks the provider to use its native JSON output mode when it has one.
	// The returned Text is still raw and must be parsed by the caller.
	JSON bool

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Response holds the model output.
type Response struct {
	Text  string
	Usage Usage
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
