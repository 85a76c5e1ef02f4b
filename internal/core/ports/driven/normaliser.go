package driven

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// Normaliser turns the bytes of one document format into sections that
// remember where they came from (page, heading, line range), so answers
// can cite them.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties between normalisers sharing a MIME type.
	// Higher wins.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is a normaliser's output before chunking.
type NormaliseResult struct {
	Document domain.ExtractedDocument
}

// NormaliserRegistry routes a document to the normaliser for its MIME
// type. Parameters such as charset are ignored when matching.
type NormaliserRegistry interface {
	// Normalise returns domain.ErrUnsupportedType when no normaliser
	// handles raw.MIMEType.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	SupportedMIMETypes() []string
}
