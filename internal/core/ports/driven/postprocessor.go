package driven

import (
	"context"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// PostProcessor is one stage of chunk production. The first stage of a
// pipeline receives nil chunks and creates them from doc; later stages
// filter or rewrite what they are given.
type PostProcessor interface {
	// Name is the key used in pipeline.processors.
	Name() string
	Process(ctx context.Context, doc *domain.ExtractedDocument, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns an extracted document into the chunks that
// get indexed.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.ExtractedDocument) ([]domain.Chunk, error)
}
