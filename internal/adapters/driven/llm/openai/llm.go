// Package openai answers questions with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/diligence/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Defaults applied by NewLLMService.
const (
	DefaultBaseURL    = openaiapi.DefaultBaseURL
	DefaultLLMModel   = "gpt-5-mini"
	DefaultLLMTimeout = 180 * time.Second
)

// LLMConfig configures the service. Only APIKey is required; BaseURL may
// point at Azure OpenAI or any compatible server.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /chat/completions.
type LLMService struct {
	api   *openaiapi.Client
	model string
}

// GPT-5 family models take max_completion_tokens and reject max_tokens.
type chatCompletionRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         float64       `json:"temperature,omitempty"`
	Stop                []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates the service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	api, err := openaiapi.New(openaiapi.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &LLMService{api: api, model: cfg.Model}, nil
}

// Chat sends the conversation and returns the first choice. A 429 is
// reported as domain.ErrRateLimited.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatCompletionRequest{
		Model:               s.model,
		Messages:            make([]chatMessage, len(messages)),
		MaxCompletionTokens: opts.MaxTokens,
		Temperature:         opts.Temperature,
		Stop:                opts.Stop,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	for i, msg := range messages {
		req.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	var resp chatCompletionResponse
	if err := s.api.JSON(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the fast-tier model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the key against /models.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
