package driven

import "github.com/custodia-labs/diligence/internal/core/domain"

// AIConfigValidator is consulted by the settings commands before new
// provider settings are kept. Settings with no provider pass: an unset
// LLM only blocks questions, and an unset embedder only blocks chromem.
type AIConfigValidator interface {
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM also rejects an unknown default tier.
	ValidateLLM(settings *domain.LLMSettings) error
}
