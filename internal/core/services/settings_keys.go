package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// Dotted config keys.
//
//nolint:gosec // G101: key names, not credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMThoroughModel = "llm.thorough_model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTier          = "llm.tier"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyIndexBackend     = "index.backend"
	keyIndexTopK        = "index.top_k"
	keyIndexFloor       = "index.relevance_floor"
	keyIndexMaxRetries  = "index.max_retries"
	keyIndexRPS         = "index.requests_per_second"
	keyIndexDataDir     = "index.data_dir"
	keyTimeoutIndex     = "timeouts.index"
	keyTimeoutSearch    = "timeouts.search"
	keyTimeoutGenerate  = "timeouts.generate"
	keyMemoTier         = "memo.tier"
	keyTranscript       = "transcript.backend"
	keyProcessors       = "pipeline.processors"
	keyChunkSize        = "pipeline.chunker.chunk_size"
	keyChunkOverlap     = "pipeline.chunker.overlap"
)

// parser converts a raw "settings set" value into what the store keeps.
type parser func(key, value string) (any, error)

type keySpec struct {
	key   string
	parse parser
}

// keySpecs lists every settable key in display order.
var keySpecs = []keySpec{
	{keyLLMProvider, parseProvider},
	{keyLLMModel, parseText},
	{keyLLMThoroughModel, parseText},
	{keyLLMBaseURL, parseText},
	{keyLLMAPIKey, parseText},
	{keyLLMTier, parseEnum(func(v string) bool { return domain.ModelTier(v).IsValid() }, "tier must be fast or thorough")},
	{keyEmbedProvider, parseEmbeddingProvider},
	{keyEmbedModel, parseText},
	{keyEmbedBaseURL, parseText},
	{keyEmbedAPIKey, parseText},
	{keyIndexBackend, parseEnum(func(v string) bool { return domain.IndexBackend(v).IsValid() }, "unknown index backend")},
	{keyIndexTopK, parseCount(1)},
	{keyIndexFloor, parseNumber(1)},
	{keyIndexMaxRetries, parseCount(0)},
	{keyIndexRPS, parseNumber(0)},
	{keyIndexDataDir, parseText},
	{keyTimeoutIndex, parseTimeout},
	{keyTimeoutSearch, parseTimeout},
	{keyTimeoutGenerate, parseTimeout},
	{keyMemoTier, parseEnum(func(v string) bool { return domain.ModelTier(v).IsValid() }, "tier must be fast or thorough")},
	{keyTranscript, parseEnum(func(v string) bool { return domain.TranscriptBackend(v).IsValid() }, "unknown transcript backend")},
	{keyProcessors, parseList},
	{keyChunkSize, parseCount(0)},
	{keyChunkOverlap, parseCount(0)},
}

// SettingKeys returns every key accepted by Set, in display order.
func SettingKeys() []string {
	keys := make([]string, len(keySpecs))
	for i, entry := range keySpecs {
		keys[i] = entry.key
	}
	return keys
}

func lookupKey(key string) (parser, bool) {
	for _, entry := range keySpecs {
		if entry.key == key {
			return entry.parse, true
		}
	}
	return nil, false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

func parseText(_, value string) (any, error) {
	return value, nil
}

func parseProvider(_, value string) (any, error) {
	if !domain.AIProvider(value).IsValid() {
		return nil, invalid("unknown provider %q", value)
	}
	return value, nil
}

func parseEmbeddingProvider(key, value string) (any, error) {
	if _, err := parseProvider(key, value); err != nil {
		return nil, err
	}
	if !supportsEmbedding(domain.AIProvider(value)) {
		return nil, invalid("provider %s does not support embeddings", value)
	}
	return value, nil
}

func parseEnum(valid func(string) bool, problem string) parser {
	return func(_, value string) (any, error) {
		if !valid(value) {
			return nil, invalid("%s, got %q", problem, value)
		}
		return value, nil
	}
}

// parseCount accepts integers of at least lowest.
func parseCount(lowest int) parser {
	return func(key, value string) (any, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < lowest {
			return nil, invalid("%s must be an integer of at least %d", key, lowest)
		}
		return n, nil
	}
}

// parseNumber accepts non-negative floats, capped at highest when it is
// non-zero.
func parseNumber(highest float64) parser {
	return func(key, value string) (any, error) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || (highest > 0 && f > highest) {
			if highest > 0 {
				return nil, invalid("%s must be between 0 and %g", key, highest)
			}
			return nil, invalid("%s must be a non-negative number", key)
		}
		return f, nil
	}
}

func parseTimeout(key, value string) (any, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return nil, invalid("%s must be a positive duration such as 30s", key)
	}
	return d.String(), nil
}

func parseList(_, value string) (any, error) {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func supportsEmbedding(p domain.AIProvider) bool {
	for _, candidate := range domain.AllEmbeddingProviders() {
		if candidate == p {
			return true
		}
	}
	return false
}
