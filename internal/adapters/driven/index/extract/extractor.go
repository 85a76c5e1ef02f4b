// Package extract turns uploaded documents into located chunks and scores
// chunks against a query. It is shared by the keyword index backends.
package extract

import (
	"context"
	"fmt"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/normalisers"
	"github.com/custodia-labs/diligence/internal/postprocessors"
)

// Extractor runs a document through normalisation and post-processing.
type Extractor struct {
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
}

// New creates an Extractor from a normaliser registry and a pipeline.
func New(registry driven.NormaliserRegistry, pipeline driven.PostProcessorPipeline) *Extractor {
	return &Extractor{registry: registry, pipeline: pipeline}
}

// Default creates an Extractor with the built-in normalisers and a
// pipeline built from cfg.
func Default(cfg domain.PipelineConfig) (*Extractor, error) {
	procs := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(procs)

	pipeline, err := postprocessors.Build(procs, cfg)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return New(normalisers.Defaults(), pipeline), nil
}

// Extract returns the chunks for doc. A document without extractable text
// yields domain.ErrEmptyDocument.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	raw := &domain.RawDocument{
		DocumentID: doc.ID,
		URI:        doc.Name,
		MIMEType:   doc.MIMEType,
		Content:    doc.Content,
	}

	// 1. NORMALISE (produces located sections)
	result, err := e.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	// 2. RUN POST-PROCESSOR PIPELINE (produces Chunks)
	chunks, err := e.pipeline.Process(ctx, &result.Document)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrEmptyDocument)
	}
	return chunks, nil
}
