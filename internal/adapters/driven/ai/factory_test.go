package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	result := &Services{}
	assert.NoError(t, result.Close())
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
			},
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "openai without key is unconfigured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateEmbeddingService_DefaultModel(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings", wantNil: true},
		{name: "openai without key", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{
			name:      "openai uses fast model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-5-mini", ThoroughModel: "gpt-5-pro"},
			wantModel: "gpt-5-mini",
		},
		{
			name:      "anthropic default model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:      "ollama needs no key",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "qwen2.5"},
			wantModel: "qwen2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("missing LLM is a warning", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		result, err := Init(settings)
		require.NoError(t, err)
		assert.Nil(t, result.LLMService)
		assert.Nil(t, result.EmbeddingService)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("chromem backend requires embeddings", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Index.Backend = domain.IndexBackendChromem
		_, err := Init(settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("chromem backend with ollama embeddings", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.APIKey = "k"
		settings.Index.Backend = domain.IndexBackendChromem
		settings.Embedding.Provider = domain.AIProviderOllama
		result, err := Init(settings)
		require.NoError(t, err)
		defer result.Close()
		assert.NotNil(t, result.LLMService)
		assert.NotNil(t, result.EmbeddingService)
		assert.Empty(t, result.Warnings)
	})
}
