package cardgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-flashdeck-be/pkg/llm"
)

// fakeProvider returns a canned response or error and records the last prompt.
type fakeProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

const validCardJSON = `{"title":"Photosynthesis","content":"Plants convert light into chemical energy.","category":"Biology","mood":"calm","icon":"🌿"}`

func TestGenerateValidCard(t *testing.T) {
	provider := &fakeProvider{response: validCardJSON}
	gen := NewGenerator(provider)

	fields, err := gen.Generate(context.Background(), "some document", nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if fields.Title != "Photosynthesis" {
		t.Errorf("Title = %q, want Photosynthesis", fields.Title)
	}
	if fields.Mood != "calm" {
		t.Errorf("Mood = %q, want calm", fields.Mood)
	}
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	provider := &fakeProvider{response: "```json\n" + validCardJSON + "\n```"}
	gen := NewGenerator(provider)

	fields, err := gen.Generate(context.Background(), "some document", nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if fields.Title != "Photosynthesis" {
		t.Errorf("Title = %q, want Photosynthesis", fields.Title)
	}
}

func TestGeneratePromptMentionsExcludedTitles(t *testing.T) {
	provider := &fakeProvider{response: validCardJSON}
	gen := NewGenerator(provider)

	_, err := gen.Generate(context.Background(), "some document", []string{"Photosynthesis", "Cell Walls"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.Contains(provider.lastPrompt, "Photosynthesis") || !strings.Contains(provider.lastPrompt, "Cell Walls") {
		t.Error("prompt should list every excluded title")
	}
	if !strings.Contains(provider.lastPrompt, "some document") {
		t.Error("prompt should embed the document text")
	}
}

func TestGenerateTruncatesLongDocuments(t *testing.T) {
	provider := &fakeProvider{response: validCardJSON}
	gen := NewGenerator(provider)

	long := strings.Repeat("a", MaxDocumentChars+500)
	_, err := gen.Generate(context.Background(), long, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if strings.Contains(provider.lastPrompt, long) {
		t.Errorf("prompt should not embed more than %d document chars", MaxDocumentChars)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		response string
		provErr  error
		wantErr  error
	}{
		{
			name:    "provider unauthorized",
			provErr: llm.ErrUnauthorized,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "provider unreachable",
			provErr: llm.ErrUnavailable,
			wantErr: ErrServiceUnavailable,
		},
		{
			name:    "unknown provider error",
			provErr: errors.New("boom"),
			wantErr: ErrServiceUnavailable,
		},
		{
			name:     "not json",
			response: "I cannot answer that.",
			wantErr:  ErrMalformedResponse,
		},
		{
			name:     "missing content field",
			response: `{"title":"T","category":"C","mood":"calm","icon":"📘"}`,
			wantErr:  ErrIncompleteResult,
		},
		{
			name:     "mood outside the enumeration",
			response: `{"title":"T","content":"c","category":"C","mood":"playful","icon":"📘"}`,
			wantErr:  ErrIncompleteResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(&fakeProvider{response: tt.response, err: tt.provErr})
			_, err := gen.Generate(context.Background(), "doc", nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
