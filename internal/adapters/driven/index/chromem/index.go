// Package chromem provides a semantic DocumentIndex backed by chromem-go.
// Each corpus gets its own in-memory collection; chunks are embedded with
// the configured EmbeddingService and ranked by cosine similarity.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.DocumentIndex = (*Index)(nil)

// Metadata keys stored on every chromem document.
const (
	metaDocumentID   = "document_id"
	metaDocumentName = "document_name"
	metaHandle       = "handle"
	metaPage         = "page"
	metaSection      = "section"
)

// overfetch widens the query so filtering to the corpus handles still
// leaves topK results.
const overfetch = 3

// Index is a chromem-go backed semantic index.
type Index struct {
	db        *chromem.DB
	embedder  driven.EmbeddingService
	extractor *extract.Extractor
}

// New creates a semantic index. The embedder is required.
func New(embedder driven.EmbeddingService, extractor *extract.Extractor) (*Index, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return &Index{
		db:        chromem.NewDB(),
		embedder:  embedder,
		extractor: extractor,
	}, nil
}

// Name returns the backend name.
func (i *Index) Name() string {
	return string(domain.IndexBackendChromem)
}

// embeddingFunc adapts the EmbeddingService to chromem.
func (i *Index) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.Embed(ctx, text)
	}
}

func collectionName(corpusID string) string {
	return "corpus-" + corpusID
}

// Index embeds the chunks of doc into the corpus collection.
func (i *Index) Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error) {
	chunks, err := i.extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	collection, err := i.db.GetOrCreateCollection(collectionName(corpusID), nil, i.embeddingFunc())
	if err != nil {
		return "", fmt.Errorf("getting/creating collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for j := range chunks {
		texts[j] = chunks[j].Content
	}

	// Generate embeddings in batch
	embeddings, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(embeddings) != len(chunks) {
		return "", fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(chunks))
	}

	handle := domain.IndexHandle(doc.ID)
	docs := make([]chromem.Document, len(chunks))
	for j, c := range chunks {
		docs[j] = chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				metaDocumentID:   c.DocumentID,
				metaDocumentName: c.DocumentName,
				metaHandle:       string(handle),
				metaPage:         strconv.Itoa(c.Locator.Page),
				metaSection:      c.Locator.Section,
			},
			Embedding: embeddings[j],
		}
	}

	// Concurrency of 1 since embeddings are precomputed
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return "", fmt.Errorf("adding documents: %w", err)
	}

	logger.Debug("chromem: indexed %d chunks of %s into %s", len(docs), doc.Name, collectionName(corpusID))
	return handle, nil
}

// Search queries the corpus collection and keeps hits from corpus documents.
func (i *Index) Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error) {
	if topK <= 0 || query == "" {
		return nil, nil
	}

	collection := i.db.GetCollection(collectionName(corpus.SessionID), i.embeddingFunc())
	if collection == nil {
		return nil, nil
	}

	// Cap k at collection size (chromem requires nResults <= doc count)
	k := topK * overfetch
	if count := collection.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	allowed := make(map[string]struct{}, len(corpus.Handles))
	for _, h := range corpus.Handles {
		allowed[string(h)] = struct{}{}
	}

	passages := make([]domain.Passage, 0, topK)
	for _, r := range results {
		if _, ok := allowed[r.Metadata[metaHandle]]; !ok {
			continue
		}
		page, _ := strconv.Atoi(r.Metadata[metaPage])
		passages = append(passages, domain.Passage{
			Text:         r.Content,
			DocumentID:   r.Metadata[metaDocumentID],
			DocumentName: r.Metadata[metaDocumentName],
			Locator:      domain.Locator{Page: page, Section: r.Metadata[metaSection]},
			Score:        clamp(float64(r.Similarity)),
		})
		if len(passages) == topK {
			break
		}
	}
	return passages, nil
}

// DropCorpus deletes the corpus collection.
func (i *Index) DropCorpus(_ context.Context, corpusID string) error {
	name := collectionName(corpusID)
	if i.db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := i.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Close releases all collections.
func (i *Index) Close() error {
	return errors.Join(i.db.Reset(), i.embedder.Close())
}

// clamp maps cosine similarity onto 0..1.
func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
