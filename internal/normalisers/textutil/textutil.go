// Package textutil holds the pieces every normaliser shares: titles from
// file names, whitespace cleanup, and result assembly.
package textutil

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

var nameSeparators = strings.NewReplacer("_", " ", "-", " ")

// TitleFromURI turns "/docs/seller-disclosure_2024.pdf" into
// "seller disclosure 2024".
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	return nameSeparators.Replace(strings.TrimSuffix(name, filepath.Ext(name)))
}

// Title prefers a "title" entry in raw.Metadata, then candidate, then the
// file name.
func Title(raw *domain.RawDocument, candidate string) string {
	if t, ok := raw.Metadata["title"].(string); ok && t != "" {
		return t
	}
	if candidate = strings.TrimSpace(candidate); candidate != "" {
		return candidate
	}
	return TitleFromURI(raw.URI)
}

// CleanLines collapses runs of spaces and tabs, trims each line, and
// drops blank lines.
func CleanLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Sections accumulates located text, skipping empty sections.
type Sections []domain.Section

// Add appends text under loc when it is not blank.
func (s *Sections) Add(loc domain.Locator, text string) {
	if text = strings.TrimSpace(text); text != "" {
		*s = append(*s, domain.Section{Locator: loc, Text: text})
	}
}

// Result builds the normaliser output. raw.Metadata is copied, never
// shared, and gains mime_type and format entries.
func Result(raw *domain.RawDocument, format, title string, sections []domain.Section) *driven.NormaliseResult {
	meta := maps.Clone(raw.Metadata)
	if meta == nil {
		meta = make(map[string]any, 2)
	}
	meta["mime_type"] = raw.MIMEType
	meta["format"] = format

	return &driven.NormaliseResult{Document: domain.ExtractedDocument{
		DocumentID: raw.DocumentID,
		URI:        raw.URI,
		Title:      Title(raw, title),
		Sections:   sections,
		Metadata:   meta,
	}}
}
