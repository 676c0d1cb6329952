package cardgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-flashdeck-be/pkg/deck"
	"ai-flashdeck-be/pkg/llm"
)

// Generator is the boundary between the deck and the AI service. It has no
// side effects beyond the network call: it returns card fields or a typed
// error and never touches deck state.
type Generator interface {
	// Generate produces one card from the document, avoiding the excluded
	// titles. excludedTitles is the full list of titles already produced
	// for this document; empty on the first request.
	Generate(ctx context.Context, documentText string, excludedTitles []string) (*deck.CardFields, error)
}

type llmGenerator struct {
	provider llm.LLMProvider
}

// NewGenerator creates a Generator backed by the given LLM provider. The
// provider is injected by the composition root and constructed exactly once.
func NewGenerator(provider llm.LLMProvider) Generator {
	return &llmGenerator{provider: provider}
}

type cardPayload struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Mood     string `json:"mood"`
	Icon     string `json:"icon"`
}

func (g *llmGenerator) Generate(ctx context.Context, documentText string, excludedTitles []string) (*deck.CardFields, error) {
	prompt := newPromptBuilder(documentText, excludedTitles).Build()

	raw, err := g.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.8),
		llm.WithResponseSchema(cardSchema()),
	)
	if err != nil {
		if errors.Is(err, llm.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	payload, err := parseCardPayload(raw)
	if err != nil {
		return nil, err
	}

	if err := validateCardPayload(payload); err != nil {
		return nil, err
	}

	return &deck.CardFields{
		Title:    payload.Title,
		Content:  payload.Content,
		Category: payload.Category,
		Mood:     payload.Mood,
		Icon:     payload.Icon,
	}, nil
}

// parseCardPayload decodes the model output into the card structure. Models
// occasionally wrap JSON in markdown fences even in structured mode, so the
// fences are stripped first.
func parseCardPayload(raw string) (*cardPayload, error) {
	cleaned := []byte(strings.TrimSpace(raw))
	cleaned = bytes.TrimPrefix(cleaned, []byte("```json"))
	cleaned = bytes.TrimPrefix(cleaned, []byte("```"))
	cleaned = bytes.TrimSuffix(cleaned, []byte("```"))
	cleaned = bytes.TrimSpace(cleaned)

	var payload cardPayload
	if err := json.Unmarshal(cleaned, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v | raw: %s", ErrMalformedResponse, err, string(cleaned))
	}
	return &payload, nil
}

// validateCardPayload enforces the card contract: all five fields present
// and the mood inside the fixed enumeration. Partial cards are never
// committed.
func validateCardPayload(p *cardPayload) error {
	if p.Title == "" || p.Content == "" || p.Category == "" || p.Mood == "" || p.Icon == "" {
		return fmt.Errorf("%w: missing required field", ErrIncompleteResult)
	}
	if !deck.ValidMood(p.Mood) {
		return fmt.Errorf("%w: mood %q is not allowed", ErrIncompleteResult, p.Mood)
	}
	return nil
}
