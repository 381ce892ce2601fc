// Package render turns post content into HTML for readers.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const maxSnippetLength = 200

// Result is a rendered post body.
type Result struct {
	HTML    string
	Snippet string
}

type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a GitHub-flavoured markdown renderer. When baseURL is
// set, root-relative links and images (such as /files/... attachments) are
// made absolute against it.
func NewRenderer(baseURL string) *Renderer {
	opts := []parser.Option{parser.WithAutoHeadingID()}
	if base := strings.TrimSuffix(baseURL, "/"); base != "" {
		opts = append(opts, parser.WithASTTransformers(
			util.Prioritized(&absoluteLinkTransformer{base: base}, 100),
		))
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
			),
			goldmark.WithParserOptions(opts...),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
				html.WithUnsafe(),
			),
		),
	}
}

func (r *Renderer) Render(markdown string) (*Result, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return &Result{
		HTML:    buf.String(),
		Snippet: Snippet(markdown),
	}, nil
}

type absoluteLinkTransformer struct {
	base string
}

func (t *absoluteLinkTransformer) Transform(node *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			v.Destination = t.resolve(v.Destination)
		case *ast.Image:
			v.Destination = t.resolve(v.Destination)
		}
		return ast.WalkContinue, nil
	})
}

func (t *absoluteLinkTransformer) resolve(dest []byte) []byte {
	d := string(dest)
	if !strings.HasPrefix(d, "/") || strings.HasPrefix(d, "//") {
		return dest
	}
	return []byte(t.base + d)
}

// Snippet returns the first paragraph of markdown as plain text, cut at a
// word boundary near 200 bytes.
func Snippet(markdown string) string {
	var paragraph []string

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || isBlockStart(trimmed) {
			if len(paragraph) > 0 {
				break
			}
			continue
		}
		paragraph = append(paragraph, trimmed)
	}
	if len(paragraph) == 0 {
		return ""
	}

	snippet := strings.Join(paragraph, " ")
	if len(snippet) > maxSnippetLength {
		snippet = snippet[:maxSnippetLength]
		if i := strings.LastIndexAny(snippet, " \t"); i > 0 {
			snippet = snippet[:i]
		}
		snippet += "..."
	}
	return snippet
}

func isBlockStart(line string) bool {
	for _, prefix := range []string{"#", "```", "---", "***", "- ", "* ", "+ ", "|", ">"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
