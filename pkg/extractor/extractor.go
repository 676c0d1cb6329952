// Package extractor converts uploaded document files into plain text.
//
// Supported formats: .txt, .pdf, .docx and .md (case-insensitive extension
// match). Anything else fails with UnsupportedFormatError before any parsing
// attempt; unreadable payloads fail with CorruptFileError. There are no
// partial results: full extracted text or a failure.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UnsupportedFormatError carries the offending extension.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Extension)
}

// CorruptFileError wraps the underlying parse failure.
type CorruptFileError struct {
	Filename string
	Err      error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt or unreadable file %q: %v", e.Filename, e.Err)
}

func (e *CorruptFileError) Unwrap() error {
	return e.Err
}

// Extractor dispatches extraction by file extension.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether the filename's extension is one of the four
// accepted formats. The upload boundary calls this before reading anything.
func (e *Extractor) Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".pdf", ".docx", ".md":
		return true
	}
	return false
}

// Extract returns the plain text of the file or a typed failure.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return extractText(data), nil
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", &CorruptFileError{Filename: filename, Err: err}
		}
		return text, nil
	case ".docx":
		text, err := extractDocx(data)
		if err != nil {
			return "", &CorruptFileError{Filename: filename, Err: err}
		}
		return text, nil
	case ".md":
		return extractMarkdown(data), nil
	default:
		return "", &UnsupportedFormatError{Extension: ext}
	}
}

// extractText normalizes line endings and trims surrounding whitespace.
func extractText(data []byte) string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(text)
}
