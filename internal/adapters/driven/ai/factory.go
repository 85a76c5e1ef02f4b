// Package ai builds the LLM and embedding adapters named by the settings.
package ai

import (
	"errors"
	"fmt"
	"strings"

	ollamaembed "github.com/custodia-labs/diligence/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/diligence/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/diligence/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/diligence/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/diligence/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

type llmBuilder func(s domain.LLMSettings, model string) (driven.LLMService, error)

type embedBuilder func(s domain.EmbeddingSettings, model string, dims int) (driven.EmbeddingService, error)

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderOllama: func(s domain.LLMSettings, model string) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: model}), nil
	},
	domain.AIProviderOpenAI: func(s domain.LLMSettings, model string) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: model})
	},
	domain.AIProviderAnthropic: func(s domain.LLMSettings, model string) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: model})
	},
}

var embedBuilders = map[domain.AIProvider]embedBuilder{
	domain.AIProviderOllama: func(s domain.EmbeddingSettings, model string, dims int) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: model, Dimensions: dims}), nil
	},
	domain.AIProviderOpenAI: func(s domain.EmbeddingSettings, model string, dims int) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: model, Dimensions: dims})
	},
}

// Services holds the adapters for one run.
type Services struct {
	// LLMService is nil when no LLM is configured.
	LLMService driven.LLMService

	// EmbeddingService is set only when the index backend needs it.
	EmbeddingService driven.EmbeddingService

	// Warnings lists configuration problems that do not stop startup.
	Warnings []string
}

// Close releases both services.
func (r *Services) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Init builds the services settings call for without contacting them.
// A missing LLM is only a warning: uploads still work and questions fail
// with domain.ErrLLMUnavailable. A backend that needs embeddings fails
// when none are configured.
func Init(settings domain.AppSettings) (*Services, error) {
	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	result := &Services{LLMService: llm}
	if llm == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"no LLM configured (provider %q); set llm.api_key or OPENAI_API_KEY", settings.LLM.Provider))
	}

	if settings.Index.Backend.RequiresEmbedding() {
		embedder, err := CreateEmbeddingService(&settings.Embedding)
		if err == nil && embedder == nil {
			err = fmt.Errorf("the %s backend needs embedding.provider", settings.Index.Backend)
		}
		if err != nil {
			_ = result.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		result.EmbeddingService = embedder
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateEmbeddingService returns nil, nil when settings are unconfigured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embedBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%s does not support embeddings, use %s",
			settings.Provider, providerList(domain.AllEmbeddingProviders()))
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Provider]
	}
	return build(*settings, model, domain.EmbeddingDimensions()[model])
}

// CreateLLMService returns nil, nil when settings are unconfigured. The
// service defaults to the fast-tier model; callers choose the thorough
// model per request with LLMSettings.ModelFor.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}

	model := settings.ModelFor(domain.TierFast)
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}
	return build(*settings, model)
}

func providerList(providers []domain.AIProvider) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.String()
	}
	return strings.Join(names, " or ")
}
