package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"notes.txt", true},
		{"paper.pdf", true},
		{"report.docx", true},
		{"readme.md", true},
		{"REPORT.DOCX", true},
		{"data.csv", false},
		{"image.png", false},
		{"archive.doc", false},
		{"noextension", false},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := e.Supported(tt.filename); got != tt.want {
				t.Errorf("Supported(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := New()
	_, err := e.Extract("data.csv", []byte("a,b,c"))

	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Extract error = %v, want UnsupportedFormatError", err)
	}
	if unsupported.Extension != ".csv" {
		t.Errorf("Extension = %q, want .csv", unsupported.Extension)
	}
}

func TestExtractPlainText(t *testing.T) {
	e := New()

	text, err := e.Extract("notes.txt", []byte("line one\r\nline two\r\n"))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if text != "line one\nline two" {
		t.Errorf("text = %q, want CRLF normalized and trimmed", text)
	}
}

func TestExtractMarkdownStripsSyntax(t *testing.T) {
	e := New()

	src := "# Heading\n\nSome **bold** and *italic* text with a [link](https://example.com).\n\n- item one\n- item two\n\n```\ncode block\n```\n"
	text, err := e.Extract("readme.md", []byte(src))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	for _, marker := range []string{"#", "**", "](", "```"} {
		if strings.Contains(text, marker) {
			t.Errorf("extracted text still contains markdown marker %q: %q", marker, text)
		}
	}
	for _, want := range []string{"Heading", "bold", "italic", "link", "item one", "code block"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text is missing %q: %q", want, text)
		}
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	e := New()

	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := e.Extract("report.docx", buildDocx(t, doc))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Errorf("missing first paragraph in %q", text)
	}
	if !strings.Contains(text, "Second paragraph.") {
		t.Errorf("runs in one paragraph should join without a break, got %q", text)
	}
}

func TestExtractDocxCorrupt(t *testing.T) {
	e := New()

	_, err := e.Extract("report.docx", []byte("this is not a zip archive"))

	var corrupt *CorruptFileError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Extract error = %v, want CorruptFileError", err)
	}
	if corrupt.Filename != "report.docx" {
		t.Errorf("Filename = %q, want report.docx", corrupt.Filename)
	}
}

func TestExtractPDFCorrupt(t *testing.T) {
	e := New()

	_, err := e.Extract("paper.pdf", []byte("%PDF-1.4 truncated garbage"))

	var corrupt *CorruptFileError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Extract error = %v, want CorruptFileError", err)
	}
}
