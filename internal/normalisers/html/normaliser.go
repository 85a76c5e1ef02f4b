package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts text from HTML pages.
type Normaliser struct{}

// New creates the normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the HTML types.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority ranks above the plain text fallback.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise parses the page and starts a new section at each h1-h3,
// located by the heading text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	root, err := xhtml.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	w := &walker{}
	w.walk(root)
	w.flush()

	return textutil.Result(raw, "html", w.title, w.sections), nil
}

// Elements whose content is never document text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
}

// Elements that break lines around their content.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Ul: true, atom.Ol: true,
	atom.Hr: true, atom.Br: true,
}

type walker struct {
	title    string
	heading  string
	text     strings.Builder
	sections textutil.Sections
}

func (w *walker) walk(n *xhtml.Node) {
	if n.Type == xhtml.TextNode {
		w.text.WriteString(n.Data)
		return
	}
	if n.Type == xhtml.ElementNode {
		switch {
		case skipped[n.DataAtom]:
			return
		case n.DataAtom == atom.Title:
			if w.title == "" {
				w.title = strings.TrimSpace(plainText(n))
			}
			return
		case n.DataAtom == atom.H1 || n.DataAtom == atom.H2 || n.DataAtom == atom.H3:
			w.flush()
			w.heading = strings.Join(strings.Fields(plainText(n)), " ")
			return
		case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
			w.children(n)
			w.text.WriteByte(' ')
			return
		case blocks[n.DataAtom]:
			w.text.WriteByte('\n')
			w.children(n)
			w.text.WriteByte('\n')
			return
		}
	}
	w.children(n)
}

func (w *walker) children(n *xhtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// flush closes the current section.
func (w *walker) flush() {
	w.sections.Add(domain.Locator{Section: w.heading}, textutil.CleanLines(w.text.String()))
	w.text.Reset()
}

// plainText returns the text under n with block structure kept as line
// breaks and scripts dropped.
func plainText(n *xhtml.Node) string {
	w := &walker{}
	w.children(n)
	return textutil.CleanLines(w.text.String())
}
