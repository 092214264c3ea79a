package service

import (
	"context"
	"errors"

	"rentalbot/internal/retrieval"
)

// ErrClientDisabled is returned when the model API has no credential configured
var ErrClientDisabled = errors.New("OpenAI API is not enabled (missing API key)")

// Generator produces a completion for a prompt
type Generator interface {
	// Generate returns the full completion text
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// GenerateStream forwards content deltas as they arrive and returns the full text
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) (string, error)
}

// GenerateRequest describes one completion call
type GenerateRequest struct {
	Model       string // empty uses the configured chat model
	Temperature *float64 // nil uses the configured temperature
	System      string
	Prompt      string
	JSON        bool // ask for a JSON object response
}

func temperature(v float64) *float64 { return &v }

// AIClient is the interface for AI service providers
type AIClient interface {
	Generator
	retrieval.Embedder

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	// Regular content (always present in streaming)
	Content string

	// Thinking/reasoning content (provider-specific, e.g., DeepSeek)
	ThinkingContent string

	Role string
	Done bool
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
