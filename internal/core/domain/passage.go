package domain

import "fmt"

// Locator points at a position inside a source document.
// Both fields are optional; a zero Locator refers to the whole document.
type Locator struct {
	// Page is the 1-based page number, or 0 when the format has no pages.
	Page int

	// Section is a heading or chunk label.
	Section string
}

// IsZero returns true if the locator carries no position.
func (l Locator) IsZero() bool {
	return l.Page == 0 && l.Section == ""
}

// String formats the locator for display, e.g. "p. 3" or "p. 3, Roof".
func (l Locator) String() string {
	switch {
	case l.Page > 0 && l.Section != "":
		return fmt.Sprintf("p. %d, %s", l.Page, l.Section)
	case l.Page > 0:
		return fmt.Sprintf("p. %d", l.Page)
	default:
		return l.Section
	}
}

// Passage is a single search hit returned by a document index.
type Passage struct {
	// Text is the matched passage.
	Text string

	// DocumentID identifies the source document.
	DocumentID string

	// DocumentName is the source document's filename.
	DocumentName string

	// Locator points at the passage within the document.
	Locator Locator

	// Score is the relevance score, normalised to 0..1.
	Score float64
}

// Source formats the passage origin as "name (locator)".
func (p Passage) Source() string {
	if p.Locator.IsZero() {
		return p.DocumentName
	}
	return fmt.Sprintf("%s (%s)", p.DocumentName, p.Locator)
}
