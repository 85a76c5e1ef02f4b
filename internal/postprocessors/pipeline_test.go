package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// appendStage adds one chunk and records the count it was handed.
type appendStage struct {
	name string
	seen int
	err  error
}

func (s *appendStage) Name() string { return s.name }

func (s *appendStage) Process(_ context.Context, _ *domain.ExtractedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.seen = len(chunks)
	return append(chunks, domain.Chunk{ID: s.name, Content: s.name}), nil
}

var roofDoc = &domain.ExtractedDocument{
	DocumentID: "inspection",
	Sections:   []domain.Section{{Text: "Roof shingles are near end of life."}},
}

func TestPipeline_Empty(t *testing.T) {
	p := NewPipeline()

	chunks, err := p.Process(context.Background(), roofDoc)
	require.NoError(t, err)
	assert.Nil(t, chunks)
	assert.Empty(t, p.Stages())
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	first := &appendStage{name: "split"}
	second := &appendStage{name: "tag"}
	p := NewPipeline(first, second)

	chunks, err := p.Process(context.Background(), roofDoc)
	require.NoError(t, err)

	assert.Equal(t, []string{"split", "tag"}, p.Stages())
	assert.Equal(t, 0, first.seen)
	assert.Equal(t, 1, second.seen)
	require.Len(t, chunks, 2)
	assert.Equal(t, "split", chunks[0].ID)
	assert.Equal(t, "tag", chunks[1].ID)
}

func TestPipeline_StageError(t *testing.T) {
	cause := errors.New("boom")
	last := &appendStage{name: "never"}
	p := NewPipeline(&appendStage{name: "split", err: cause}, last)

	chunks, err := p.Process(context.Background(), roofDoc)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "processor split")
	assert.Nil(t, chunks)
	assert.Equal(t, 0, last.seen)
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&appendStage{name: "split"}).Process(ctx, roofDoc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := Build(r, domain.PipelineConfig{
		Processors:       []string{"chunker", "dedupe"},
		ProcessorConfigs: map[string]map[string]any{"chunker": {"chunk_size": int64(40), "overlap": int64(0)}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunker", "dedupe"}, p.Stages())

	chunks, err := p.Process(context.Background(), roofDoc)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestBuild_UnknownProcessor(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := Build(r, domain.PipelineConfig{Processors: []string{"chunker", "ocr"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
