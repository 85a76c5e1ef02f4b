// Package openaiapi is the HTTP client shared by the OpenAI chat, embedding
// and vector store adapters: bearer auth, the JSON error envelope, and 429
// handling in one place.
package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// ErrMissingKey is returned by New without an API key.
var ErrMissingKey = errors.New("openai: API key is required")

// Limiter paces requests. Backoff is called with the server's Retry-After
// delay after a 429.
type Limiter interface {
	Wait(ctx context.Context) error
	Backoff(d time.Duration)
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// Limiter, when set, is waited on before every request.
	Limiter Limiter
}

// Client sends authenticated JSON requests.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	headers map[string]string
	limiter Limiter
}

// New creates a client. Timeout zero means no client-side timeout.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		headers: cfg.Headers,
		limiter: cfg.Limiter,
	}, nil
}

// BaseURL returns the endpoint without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is a non-2xx response other than 429.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("openai error (status %d): %s", e.Status, e.Message)
}

// JSON encodes in (when non-nil) as the request body and decodes the
// response into out (when non-nil).
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	if in == nil {
		return c.Do(ctx, method, path, "", http.NoBody, out)
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.Do(ctx, method, path, "application/json", bytes.NewReader(data), out)
}

// Do sends body with the given content type. A 429 becomes
// domain.ErrRateLimited; other failures become *Error.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openai %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if c.limiter != nil {
			c.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		}
		return fmt.Errorf("openai %s %s: %w", method, path, domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping lists models, which checks the key without running inference.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.JSON(ctx, http.MethodGet, "/models", nil, nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// errorMessage pulls error.message out of the envelope, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
