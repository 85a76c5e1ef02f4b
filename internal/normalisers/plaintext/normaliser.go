package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers/textutil"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// pageBreak separates pages in text exported from paginated documents.
const pageBreak = "\f"

var mimeTypes = []string{
	"text/plain",
	"text/csv",
	"text/tab-separated-values",
	"text/rtf",
	"application/json",
	"application/xml",
	"text/xml",
}

// Normaliser is the fallback for any UTF-8 text.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return append([]string(nil), mimeTypes...)
}

// Priority is the lowest of the built-in normalisers.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise keeps the text as is. Form feeds split it into pages numbered
// from 1; blank pages are dropped without renumbering.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrUnsupportedType, filepath.Base(raw.URI))
	}

	content := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")

	var sections textutil.Sections
	if pages := strings.Split(content, pageBreak); len(pages) > 1 {
		for i, page := range pages {
			sections.Add(domain.Locator{Page: i + 1}, page)
		}
	} else {
		sections.Add(domain.Locator{}, content)
	}

	return textutil.Result(raw, "text", "", sections), nil
}
