// Package markdown extracts text from Markdown with goldmark. Top-level
// headings start sections; fenced code and raw HTML are dropped.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates the normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the Markdown types.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority ranks above the plain text fallback.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise splits the document at each top-level heading. The first
// level-one heading becomes the title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	src := raw.Content
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var (
		sections textutil.Sections
		title    string
		heading  string
		body     strings.Builder
	)
	for block := root.FirstChild(); block != nil; block = block.NextSibling() {
		h, ok := block.(*ast.Heading)
		if !ok {
			writeBlock(&body, block, src)
			continue
		}
		sections.Add(domain.Locator{Section: heading}, textutil.CleanLines(body.String()))
		body.Reset()
		heading = textutil.CleanLines(inlineText(h, src))
		if title == "" && h.Level == 1 {
			title = heading
		}
	}
	sections.Add(domain.Locator{Section: heading}, textutil.CleanLines(body.String()))

	return textutil.Result(raw, "markdown", title, sections), nil
}

// writeBlock writes the readable text of a block, one line per paragraph
// or list item.
func writeBlock(b *strings.Builder, n ast.Node, src []byte) {
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
		return
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		b.WriteString(inlineText(n, src))
		b.WriteByte('\n')
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeBlock(b, c, src)
	}
}

// inlineText flattens emphasis, links and code spans to their text.
// Images and inline HTML contribute nothing.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// plainText renders a whole Markdown snippet as text.
func plainText(md string) string {
	src := []byte(md)
	var b strings.Builder
	writeBlock(&b, goldmark.DefaultParser().Parse(text.NewReader(src)), src)
	return textutil.CleanLines(b.String())
}
