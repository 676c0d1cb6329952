package extractor

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown strips the markup by walking the parsed AST and keeping
// only the text content. Code blocks keep their literal lines. Markdown that
// fails to parse as anything interesting still degrades to its raw text, so
// this never fails.
func extractMarkdown(data []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			writeCodeLines(&buf, t.Lines(), data)
		case *ast.CodeBlock:
			writeCodeLines(&buf, t.Lines(), data)
		case *ast.CodeSpan:
			// inline code text arrives via child Text nodes
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(strings.TrimSpace(buf.String()))
}

func writeCodeLines(buf *strings.Builder, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
