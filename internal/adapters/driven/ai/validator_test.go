package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewConfigValidator_Timeout(t *testing.T) {
	assert.Equal(t, DefaultPingTimeout, NewConfigValidator().timeout)
	assert.Equal(t, time.Second, NewConfigValidator(WithPingTimeout(time.Second)).timeout)
	assert.Equal(t, DefaultPingTimeout, NewConfigValidator(WithPingTimeout(0)).timeout)
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	up := ollamaServer(t, http.StatusOK)
	down := ollamaServer(t, http.StatusServiceUnavailable)

	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  error
	}{
		{"nil settings", nil, nil},
		{"no provider", &domain.LLMSettings{Model: "gpt-4o-mini"}, nil},
		{"openai without key", &domain.LLMSettings{Provider: domain.AIProviderOpenAI}, nil},
		{"reachable", &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL}, nil},
		{
			"thorough tier",
			&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL, Tier: domain.TierThorough},
			nil,
		},
		{
			"unreachable",
			&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL},
			domain.ErrLLMUnavailable,
		},
		{
			"bad tier",
			&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL, Tier: "slow"},
			domain.ErrInvalidInput,
		},
	}

	validator := NewConfigValidator(WithPingTimeout(2 * time.Second))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateLLM(tt.settings)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	up := ollamaServer(t, http.StatusOK)
	down := ollamaServer(t, http.StatusServiceUnavailable)
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Model: "nomic-embed-text"}))
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  up.URL,
	}))

	err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  down.URL,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "ollama unreachable")

	err = validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "sk-ant",
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
