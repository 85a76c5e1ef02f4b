package driving

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// CorpusManager tracks the documents of one session's knowledge base.
type CorpusManager interface {
	// Register validates an upload and starts indexing it asynchronously.
	// Registering content whose hash is already in the corpus returns the
	// existing document with Duplicate set, and no new indexing job runs.
	Register(ctx context.Context, upload domain.Upload) (Registration, error)

	// Status returns a consistent snapshot of the corpus.
	Status(ctx context.Context) domain.CorpusStatus

	// RequireReady returns a handle for querying, or a *domain.NotReadyError
	// unless every document is indexed.
	RequireReady(ctx context.Context) (domain.CorpusHandle, error)

	// Wait blocks until every job registered so far has finished or ctx ends.
	Wait(ctx context.Context) error

	// Document returns a copy of a single document.
	Document(ctx context.Context, id string) (domain.Document, error)
}

// Registration is the result of registering an upload.
type Registration struct {
	// Document is a snapshot of the registered document.
	Document domain.Document

	// Duplicate is true when the content was already in the corpus.
	Duplicate bool

	// Job tracks the document's indexing.
	Job IndexJob
}

// IndexJob is the future for one document's indexing.
type IndexJob interface {
	// DocumentID identifies the document being indexed.
	DocumentID() string

	// Done is closed once the document reaches a terminal status.
	Done() <-chan struct{}

	// Wait blocks until the job finishes or ctx ends. It returns the final
	// document and, for failed documents, the *domain.IndexError.
	Wait(ctx context.Context) (domain.Document, error)
}
