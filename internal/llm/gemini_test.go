package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL + "/",
	})
	require.NoError(t, err)
	return p
}

func TestGeminiModelMapping(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.0-pro", resolveModel("gemini-pro", geminiModels))
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-2.5-flash", geminiModels))
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	var (
		path string
		body []byte
	)
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"questions":[]}`}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 30,
				"totalTokenCount":      42,
			},
		})
	})

	resp, err := p.Generate(context.Background(), Request{
		System: "Сен мұғаліміссің.",
		Prompt: "Тест жаса.",
		JSON:   true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(path, "/models/gemini-2.0-flash:generateContent"), path)
	assert.Contains(t, string(body), `"responseMimeType":"application/json"`)
	assert.Contains(t, string(body), "Сен мұғаліміссің.")

	assert.Equal(t, `{"questions":[]}`, resp.Text)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 30, TotalTokens: 42}, resp.Usage)
}

func TestGeminiProvider_RateLimit(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := p.Generate(context.Background(), Request{Prompt: "Тест жаса."})
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl), "got %v", err)
}

func TestGeminiProvider_EmptyText(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`))
	})

	_, err := p.Generate(context.Background(), Request{Prompt: "Тест жаса."})
	var invalid *ErrInvalidResponse
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		rateLimit bool
	}{
		{"value 429", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"pointer 429", &genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"wrapped 429", fmt.Errorf("call: %w", genai.APIError{Code: http.StatusTooManyRequests}), true},
		{"server error", genai.APIError{Code: http.StatusInternalServerError}, false},
		{"network", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapGeminiError(tt.err)
			var rl *ErrRateLimit
			var unavailable *ErrProviderUnavailable
			if tt.rateLimit {
				assert.True(t, errors.As(err, &rl))
			} else {
				assert.True(t, errors.As(err, &unavailable))
			}
			assert.Equal(t, tt.err, errors.Unwrap(err))
		})
	}
}

func TestMapGeminiStopReason(t *testing.T) {
	maxed := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}}
	stopped := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}}}

	assert.Equal(t, "max_tokens", mapGeminiStopReason(maxed))
	assert.Equal(t, "end", mapGeminiStopReason(stopped))
	assert.Equal(t, "end", mapGeminiStopReason(&genai.GenerateContentResponse{}))
}
