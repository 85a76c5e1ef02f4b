package driven

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// DocumentIndex wraps an external indexing and search service.
// Each session's documents live in their own corpus, keyed by session ID,
// and searches never cross corpora.
//
// Index and Search block on network or disk I/O and must honour ctx
// cancellation. Index must either return a handle or an error: a document
// is never dropped silently.
//
// Implementations may include:
//   - In-process keyword index
//   - SQLite FTS5
//   - chromem-go semantic collections
//   - OpenAI hosted vector stores
type DocumentIndex interface {
	// Index submits the document's content to the corpus and returns its handle.
	// Unsupported formats wrap domain.ErrUnsupportedType; documents with no
	// extractable text wrap domain.ErrEmptyDocument.
	Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error)

	// Search returns up to topK passages ordered by descending relevance.
	Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error)

	// DropCorpus removes everything indexed under corpusID.
	DropCorpus(ctx context.Context, corpusID string) error

	// Name returns the backend name for logging.
	Name() string

	// Close releases resources.
	Close() error
}
