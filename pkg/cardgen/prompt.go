package cardgen

import (
	"strings"
	"unicode/utf8"

	"ai-flashdeck-be/pkg/deck"
)

// MaxDocumentChars bounds the document excerpt sent to the AI service. One
// concept never needs the full document.
const MaxDocumentChars = 6000

// promptBuilder assembles the generation prompt from the document excerpt
// and the exclusion list.
type promptBuilder struct {
	document       string
	excludedTitles []string
}

func newPromptBuilder(document string, excludedTitles []string) *promptBuilder {
	return &promptBuilder{
		document:       document,
		excludedTitles: excludedTitles,
	}
}

func (b *promptBuilder) Build() string {
	var prompt strings.Builder

	b.writeSourceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeExclusions(&prompt)
	b.writeOutputFormat(&prompt)

	return prompt.String()
}

func (b *promptBuilder) writeSourceMaterial(prompt *strings.Builder) {
	excerpt := b.document
	if len(excerpt) > MaxDocumentChars {
		// Back off to a rune start so the cut never leaves a split
		// multi-byte sequence at the end of the excerpt.
		cut := MaxDocumentChars
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}

	prompt.WriteString("<source_material>\n")
	prompt.WriteString(excerpt)
	prompt.WriteString("\n</source_material>\n\n")
}

func (b *promptBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You create micro-learning flashcards from documents.\n")
	prompt.WriteString("Pick ONE distinct concept from the source material that has not been covered yet ")
	prompt.WriteString("and summarize it as a single short flashcard.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *promptBuilder) writeExclusions(prompt *strings.Builder) {
	if len(b.excludedTitles) == 0 {
		return
	}

	prompt.WriteString("<already_covered>\n")
	prompt.WriteString("These concepts already have cards. Do NOT reuse any of these titles:\n")
	for _, title := range b.excludedTitles {
		prompt.WriteString("- ")
		prompt.WriteString(title)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</already_covered>\n\n")
}

func (b *promptBuilder) writeOutputFormat(prompt *strings.Builder) {
	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY a JSON object with these fields:\n")
	prompt.WriteString("- title: short concept name (max 8 words)\n")
	prompt.WriteString("- content: 2-3 sentence explanation\n")
	prompt.WriteString("- category: single classification word\n")
	prompt.WriteString("- mood: one of ")
	prompt.WriteString(strings.Join(deck.Moods, ", "))
	prompt.WriteString("\n")
	prompt.WriteString("- icon: a single emoji\n")
	prompt.WriteString("No other text.\n")
	prompt.WriteString("</output_format>\n")
}

// cardSchema is the structured-output schema sent alongside the request.
// Mirrors the JSON object described in the prompt.
func cardSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":    map[string]interface{}{"type": "string"},
			"content":  map[string]interface{}{"type": "string"},
			"category": map[string]interface{}{"type": "string"},
			"mood":     map[string]interface{}{"type": "string", "enum": deck.Moods},
			"icon":     map[string]interface{}{"type": "string"},
		},
		"required": []string{"title", "content", "category", "mood", "icon"},
	}
}
