package index

import (
	"fmt"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/chromem"
	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/diligence/internal/adapters/driven/index/openai"
	"github.com/custodia-labs/diligence/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Deps holds what the backends may need.
type Deps struct {
	// Settings selects the backend and its limits.
	Settings domain.AppSettings

	// Embedder is required by the chromem backend.
	Embedder driven.EmbeddingService

	// Store is required by the sqlite backend.
	Store *sqlite.Store

	// Metrics records upstream timeouts. Nil discards them.
	Metrics driven.MetricsRecorder
}

// New builds the configured backend wrapped in a Resilient decorator.
func New(deps Deps) (*Resilient, error) {
	settings := deps.Settings
	backend := settings.Index.Backend
	if backend == "" {
		backend = domain.IndexBackendMemory
	}
	if !backend.IsValid() {
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, backend)
	}

	var (
		inner driven.DocumentIndex
		rps   = settings.Index.RequestsPerSecond
	)

	switch backend {
	case domain.IndexBackendOpenAI:
		idx, err := openai.New(openai.Config{
			APIKey:            settings.OpenAIKey(),
			RequestsPerSecond: rps,
		})
		if err != nil {
			return nil, err
		}
		inner = idx
		// The vector store client limits its own HTTP calls.
		rps = 0
	default:
		extractor, err := extract.Default(settings.Pipeline)
		if err != nil {
			return nil, fmt.Errorf("build extractor: %w", err)
		}
		switch backend {
		case domain.IndexBackendSQLite:
			if deps.Store == nil {
				return nil, fmt.Errorf("%w: sqlite backend needs a store", domain.ErrInvalidInput)
			}
			inner = deps.Store.DocumentIndex(extractor)
		case domain.IndexBackendChromem:
			idx, err := chromem.New(deps.Embedder, extractor)
			if err != nil {
				return nil, err
			}
			inner = idx
		default:
			inner = memory.New(extractor)
		}
	}

	logger.Debug("document index backend: %s", inner.Name())

	return NewResilient(inner, Options{
		IndexTimeout:      settings.Timeouts.Index,
		SearchTimeout:     settings.Timeouts.Search,
		MaxRetries:        settings.Index.MaxRetries,
		RequestsPerSecond: rps,
		Metrics:           deps.Metrics,
	}), nil
}
