package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/postprocessors/chunker"
	"github.com/custodia-labs/diligence/internal/postprocessors/dedupe"
)

// DefaultDedupeMinLength is the length below which dedupe keeps repeats.
const DefaultDedupeMinLength = 20

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("dedupe", buildDedupe)
}

// buildChunker reads chunk_size and overlap, both in characters.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	size, ok, err := intOption(cfg, "chunk_size")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}

	overlap, ok, err := intOption(cfg, "overlap")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildDedupe reads min_length.
func buildDedupe(cfg map[string]any) (driven.PostProcessor, error) {
	minLength, ok, err := intOption(cfg, "min_length")
	if err != nil {
		return nil, err
	}
	if !ok {
		minLength = DefaultDedupeMinLength
	}
	return dedupe.New(minLength), nil
}

// intOption reads a whole number that may have been decoded from TOML
// (int64), JSON (float64) or set in code (int).
func intOption(cfg map[string]any, key string) (int, bool, error) {
	v, ok := cfg[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n == float64(int(n)) {
			return int(n), true, nil
		}
	}
	return 0, false, fmt.Errorf("%w: %s must be a whole number, got %v", domain.ErrInvalidInput, key, v)
}
