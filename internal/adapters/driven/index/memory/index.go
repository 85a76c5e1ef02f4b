// Package memory provides an in-process keyword DocumentIndex.
// Chunks live in a map keyed by corpus and are scored by query term coverage.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.DocumentIndex = (*Index)(nil)

// Index is a thread-safe in-memory document index.
type Index struct {
	extractor *extract.Extractor

	mu      sync.RWMutex
	corpora map[string]map[domain.IndexHandle][]domain.Chunk
}

// New creates an empty in-memory index.
func New(extractor *extract.Extractor) *Index {
	return &Index{
		extractor: extractor,
		corpora:   make(map[string]map[domain.IndexHandle][]domain.Chunk),
	}
}

// Name returns the backend name.
func (i *Index) Name() string {
	return string(domain.IndexBackendMemory)
}

// Index extracts and stores the chunks of doc under corpusID.
func (i *Index) Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error) {
	chunks, err := i.extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := domain.IndexHandle(doc.ID)

	i.mu.Lock()
	defer i.mu.Unlock()

	docs, ok := i.corpora[corpusID]
	if !ok {
		docs = make(map[domain.IndexHandle][]domain.Chunk)
		i.corpora[corpusID] = docs
	}
	docs[handle] = chunks

	return handle, nil
}

// Search ranks the chunks of the documents in corpus against query.
func (i *Index) Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(corpus.Handles))
	for id := range corpus.Handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	i.mu.RLock()
	docs := i.corpora[corpus.SessionID]
	var chunks []domain.Chunk
	for _, id := range ids {
		chunks = append(chunks, docs[corpus.Handles[id]]...)
	}
	i.mu.RUnlock()

	return extract.Rank(query, chunks, topK), nil
}

// DropCorpus removes every chunk stored under corpusID.
func (i *Index) DropCorpus(_ context.Context, corpusID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.corpora, corpusID)
	return nil
}

// Close releases all stored chunks.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.corpora = make(map[string]map[domain.IndexHandle][]domain.Chunk)
	return nil
}
