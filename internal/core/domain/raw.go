package domain

import "strings"

// RawDocument represents the bytes of an uploaded document before text extraction.
type RawDocument struct {
	// DocumentID links to the corpus Document.
	DocumentID string

	// URI is the original filename or path.
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains uploader-supplied key-value pairs.
	Metadata map[string]any
}

// Section is a run of extracted text sharing one locator, such as a PDF page
// or a markdown heading.
type Section struct {
	// Locator identifies where the text lives in the source document.
	Locator Locator

	// Text is the plain text content.
	Text string
}

// ExtractedDocument is the plain text form of a document after normalisation.
type ExtractedDocument struct {
	// DocumentID links to the corpus Document.
	DocumentID string

	// URI is the original filename or path.
	URI string

	// Title is the human-readable title.
	Title string

	// Sections holds the text in document order.
	Sections []Section

	// Metadata contains format-specific key-value pairs.
	Metadata map[string]any
}

// Text returns all section text joined by blank lines.
func (d *ExtractedDocument) Text() string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		if strings.TrimSpace(s.Text) != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
