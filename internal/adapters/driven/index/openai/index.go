// Package openai provides a DocumentIndex backed by the OpenAI hosted vector
// store. Each corpus maps to one vector store; each document is uploaded as
// a file and searched with the vector store search endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/throttle"
	"github.com/custodia-labs/diligence/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.DocumentIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = openaiapi.DefaultBaseURL
	DefaultTimeout      = 120 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// Vector store file processing states.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

// Config holds configuration for the vector store index.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Timeout bounds each HTTP request (default: 120s).
	Timeout time.Duration

	// PollInterval is the delay between file status checks (default: 2s).
	PollInterval time.Duration

	// RequestsPerSecond limits API calls. Zero disables limiting.
	RequestsPerSecond float64
}

// Index is an OpenAI vector store backed document index.
type Index struct {
	api          *openaiapi.Client
	pollInterval time.Duration
	limiter      *throttle.Limiter
	creating     singleflight.Group // keyed by corpus ID

	mu     sync.Mutex
	stores map[string]string   // corpus ID -> vector store ID
	files  map[string][]string // corpus ID -> uploaded file IDs
}

// New creates a vector store index.
func New(cfg Config) (*Index, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	limiter := throttle.New(throttle.Config{RequestsPerSecond: cfg.RequestsPerSecond, BurstSize: 5})
	api, err := openaiapi.New(openaiapi.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"OpenAI-Beta": "assistants=v2"},
		Limiter: limiter,
	})
	if err != nil {
		return nil, err
	}

	return &Index{
		api:          api,
		pollInterval: cfg.PollInterval,
		limiter:      limiter,
		stores:       make(map[string]string),
		files:        make(map[string][]string),
	}, nil
}

// Name returns the backend name.
func (i *Index) Name() string {
	return string(domain.IndexBackendOpenAI)
}

// Index uploads doc, attaches it to the corpus vector store and waits
// until the store has processed it. The handle is the uploaded file ID.
func (i *Index) Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error) {
	storeID, err := i.storeFor(ctx, corpusID)
	if err != nil {
		return "", err
	}

	fileID, err := i.uploadFile(ctx, doc.Name, doc.Content)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", doc.Name, err)
	}
	i.mu.Lock()
	i.files[corpusID] = append(i.files[corpusID], fileID)
	i.mu.Unlock()

	f, err := i.attachFile(ctx, storeID, fileID)
	if err != nil {
		return "", fmt.Errorf("attach %s: %w", doc.Name, err)
	}

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	for {
		switch f.Status {
		case statusCompleted:
			logger.Debug("openai: %s processed into vector store %s", doc.Name, storeID)
			return domain.IndexHandle(fileID), nil
		case statusFailed, statusCancelled:
			reason := f.Status
			if f.LastError != nil && f.LastError.Message != "" {
				reason = f.LastError.Message
			}
			if f.LastError != nil && f.LastError.Code == "unsupported_file" {
				return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, reason)
			}
			return "", fmt.Errorf("vector store rejected %s: %s", doc.Name, reason)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		if f, err = i.fileStatus(ctx, storeID, fileID); err != nil {
			return "", fmt.Errorf("poll %s: %w", doc.Name, err)
		}
	}
}

// storeFor returns the corpus vector store, creating it on first use.
// Concurrent first uses of one corpus share a single create request, made
// without holding i.mu.
func (i *Index) storeFor(ctx context.Context, corpusID string) (string, error) {
	if id, ok := i.knownStore(corpusID); ok {
		return id, nil
	}

	v, err, _ := i.creating.Do(corpusID, func() (any, error) {
		if id, ok := i.knownStore(corpusID); ok {
			return id, nil
		}
		id, err := i.createVectorStore(ctx, "diligence-"+corpusID)
		if err != nil {
			return "", err
		}
		i.mu.Lock()
		i.stores[corpusID] = id
		i.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	return v.(string), nil
}

func (i *Index) knownStore(corpusID string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.stores[corpusID]
	return id, ok
}

// Search queries the corpus vector store. Hits from files outside the
// corpus handles are dropped. The hosted store chunks files itself, so a
// passage carries a locator only when the hit has page or section
// attributes.
func (i *Index) Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error) {
	storeID, ok := i.knownStore(corpus.SessionID)
	if !ok || topK <= 0 {
		return nil, nil
	}

	resp, err := i.searchStore(ctx, storeID, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}

	passages := make([]domain.Passage, 0, len(resp.Data))
	for _, hit := range resp.Data {
		docID, ok := corpus.DocumentForHandle(domain.IndexHandle(hit.FileID))
		if !ok {
			continue
		}
		var text []string
		for _, c := range hit.Content {
			if c.Type == "text" {
				text = append(text, c.Text)
			}
		}
		name := corpus.Documents[docID]
		if name == "" {
			name = hit.Filename
		}
		passages = append(passages, domain.Passage{
			Text:         strings.Join(text, "\n"),
			DocumentID:   docID,
			DocumentName: name,
			Locator:      hit.locator(),
			Score:        hit.Score,
		})
	}
	return passages, nil
}

// DropCorpus deletes the corpus vector store and its uploaded files.
func (i *Index) DropCorpus(ctx context.Context, corpusID string) error {
	i.mu.Lock()
	storeID, ok := i.stores[corpusID]
	files := i.files[corpusID]
	delete(i.stores, corpusID)
	delete(i.files, corpusID)
	i.mu.Unlock()

	var errs []error
	if ok {
		if err := i.deleteVectorStore(ctx, storeID); err != nil {
			errs = append(errs, fmt.Errorf("delete vector store: %w", err))
		}
	}
	for _, fileID := range files {
		if err := i.deleteFile(ctx, fileID); err != nil {
			errs = append(errs, fmt.Errorf("delete file %s: %w", fileID, err))
		}
	}
	return errors.Join(errs...)
}

// Close keeps remote stores; DropCorpus removes them.
func (i *Index) Close() error {
	return nil
}
