package cardgen

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPromptTruncatesOnRuneBoundary(t *testing.T) {
	// One ASCII byte followed by 3-byte runes puts the byte cap in the
	// middle of a rune.
	document := "a" + strings.Repeat("€", MaxDocumentChars)

	prompt := newPromptBuilder(document, nil).Build()

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt contains an invalid UTF-8 sequence after truncation")
	}
	if strings.ContainsRune(prompt, utf8.RuneError) {
		t.Error("prompt contains a replacement character after truncation")
	}

	start := strings.Index(prompt, "<source_material>\n") + len("<source_material>\n")
	end := strings.Index(prompt, "\n</source_material>")
	if start < 0 || end < 0 || end < start {
		t.Fatalf("prompt is missing the source material section: %q", prompt)
	}
	excerpt := prompt[start:end]
	if len(excerpt) > MaxDocumentChars {
		t.Errorf("excerpt is %d bytes, cap is %d", len(excerpt), MaxDocumentChars)
	}
	if !strings.HasSuffix(excerpt, "€") {
		t.Errorf("excerpt should end with a whole rune, got %q", excerpt[len(excerpt)-4:])
	}
}

func TestPromptShortDocumentKeptWhole(t *testing.T) {
	document := "short document with a rune: €"

	prompt := newPromptBuilder(document, nil).Build()

	if !strings.Contains(prompt, document) {
		t.Errorf("short documents must be embedded untruncated")
	}
}
