package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func TestTitleFromURI(t *testing.T) {
	tests := map[string]string{
		"/docs/seller-disclosure_2024.pdf": "seller disclosure 2024",
		"inspection.txt":                   "inspection",
		"README":                           "README",
	}
	for uri, want := range tests {
		assert.Equal(t, want, TitleFromURI(uri), uri)
	}
}

func TestTitle(t *testing.T) {
	raw := &domain.RawDocument{URI: "hoa_minutes.md"}
	assert.Equal(t, "hoa minutes", Title(raw, "  "))
	assert.Equal(t, "March Minutes", Title(raw, "March Minutes"))

	raw.Metadata = map[string]any{"title": "From Metadata"}
	assert.Equal(t, "From Metadata", Title(raw, "March Minutes"))
}

func TestCleanLines(t *testing.T) {
	assert.Equal(t, "a b\nc", CleanLines("  a \t b \r\n\n\n   c  "))
	assert.Empty(t, CleanLines(" \n\t\n"))
}

func TestSections_Add(t *testing.T) {
	var s Sections
	s.Add(domain.Locator{Page: 1}, "  page one ")
	s.Add(domain.Locator{Page: 2}, "\n\n")
	require.Len(t, s, 1)
	assert.Equal(t, "page one", s[0].Text)
	assert.Equal(t, 1, s[0].Locator.Page)
}

func TestResult_CopiesMetadata(t *testing.T) {
	raw := &domain.RawDocument{
		DocumentID: "d1",
		URI:        "appraisal.html",
		MIMEType:   "text/html",
		Metadata:   map[string]any{"source": "upload"},
	}

	res := Result(raw, "html", "", nil)

	doc := res.Document
	assert.Equal(t, "d1", doc.DocumentID)
	assert.Equal(t, "appraisal", doc.Title)
	assert.Equal(t, "html", doc.Metadata["format"])
	assert.Equal(t, "text/html", doc.Metadata["mime_type"])
	assert.Equal(t, "upload", doc.Metadata["source"])
	assert.NotContains(t, raw.Metadata, "format")
}
