package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

type stubProcessor struct {
	name string
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.ExtractedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func TestRegistry_BuildRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(cfg map[string]any) (driven.PostProcessor, error) {
		name, _ := cfg["label"].(string)
		return &stubProcessor{name: name}, nil
	})

	proc, err := r.Build("stub", map[string]any{"label": "hoa-splitter"})

	require.NoError(t, err)
	assert.Equal(t, "hoa-splitter", proc.Name())
	assert.True(t, r.Has("stub"))
}

func TestRegistry_BuildUnknown(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("ocr", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "available: chunker, dedupe")
}

func TestRegistry_BuilderError(t *testing.T) {
	cause := errors.New("chunk_size too small")
	r := NewRegistry()
	r.Register("strict", func(map[string]any) (driven.PostProcessor, error) {
		return nil, cause
	})

	_, err := r.Build("strict", nil)

	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "build processor strict")
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"dedupe", "chunker", "annotate"} {
		r.Register(name, nil)
	}

	assert.Equal(t, []string{"annotate", "chunker", "dedupe"}, r.Names())
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	tests := []struct {
		name string
		cfg  map[string]any
	}{
		{"chunker", map[string]any{"chunk_size": 500, "overlap": 100}},
		{"chunker", nil},
		{"dedupe", map[string]any{"min_length": int64(40)}},
		{"dedupe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := r.Build(tt.name, tt.cfg)

			require.NoError(t, err)
			assert.Equal(t, tt.name, proc.Name())
		})
	}
}

func TestIntOption(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]any
		want    int
		present bool
		wantErr bool
	}{
		{"int", map[string]any{"size": 100}, 100, true, false},
		{"int64 from TOML", map[string]any{"size": int64(200)}, 200, true, false},
		{"float64 from JSON", map[string]any{"size": float64(300)}, 300, true, false},
		{"fractional", map[string]any{"size": 2.5}, 0, false, true},
		{"string", map[string]any{"size": "400"}, 0, false, true},
		{"missing", map[string]any{}, 0, false, false},
		{"nil map", nil, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := intOption(tt.cfg, "size")
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterDefaults_BadOption(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("chunker", map[string]any{"chunk_size": "big"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "build processor chunker")
}
