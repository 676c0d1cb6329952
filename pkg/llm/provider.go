package llm

import (
	"context"
	"errors"
)

// Transport-level failures every provider maps onto, so callers can tell a
// configuration problem from a transient outage without knowing the backend.
var (
	// ErrUnauthorized means the credential is missing or rejected.
	ErrUnauthorized = errors.New("llm: unauthorized")

	// ErrUnavailable means the service could not be reached or answered
	// with a non-auth failure status.
	ErrUnavailable = errors.New("llm: service unavailable")
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model

	// ResponseSchema, when set, asks the backend for structured JSON output
	// conforming to the schema. Providers without schema support fall back
	// to plain JSON mode.
	ResponseSchema map[string]interface{}
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithResponseSchema(schema map[string]interface{}) Option {
	return func(o *Options) {
		o.ResponseSchema = schema
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
