package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmptyDocument", ErrEmptyDocument},
		{"ErrNotReady", ErrNotReady},
		{"ErrUpstreamTimeout", ErrUpstreamTimeout},
		{"ErrSessionNotFound", ErrSessionNotFound},
		{"ErrSessionClosed", ErrSessionClosed},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestIndexError(t *testing.T) {
	err := &IndexError{DocumentName: "inspection.pdf", Err: ErrEmptyDocument}

	assert.Equal(t, "index inspection.pdf: empty document", err.Error())
	assert.True(t, errors.Is(err, ErrEmptyDocument))

	wrapped := fmt.Errorf("register: %w", err)
	var target *IndexError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "inspection.pdf", target.DocumentName)
}

func TestNotReadyError(t *testing.T) {
	t.Run("matches sentinel", func(t *testing.T) {
		err := &NotReadyError{Readiness: ReadinessEmpty, Reason: "no documents uploaded"}
		assert.True(t, errors.Is(err, ErrNotReady))
		assert.False(t, errors.Is(err, ErrUpstreamTimeout))
		assert.Equal(t, "corpus not ready (empty): no documents uploaded", err.Error())
	})

	t.Run("without reason", func(t *testing.T) {
		err := &NotReadyError{Readiness: ReadinessIndexing}
		assert.Equal(t, "corpus not ready (indexing)", err.Error())
	})

	t.Run("unwraps cause", func(t *testing.T) {
		err := &NotReadyError{Readiness: ReadinessIndexing, Err: ErrUpstreamTimeout}
		assert.True(t, errors.Is(err, ErrUpstreamTimeout))
	})
}

func TestUpstreamTimeoutError(t *testing.T) {
	err := &UpstreamTimeoutError{Op: "search", Timeout: 30 * time.Second}

	assert.Equal(t, "search timed out after 30s", err.Error())
	assert.True(t, errors.Is(err, ErrUpstreamTimeout))
	assert.True(t, err.Retryable())

	wrapped := &IndexError{DocumentName: "hoa.pdf", Err: err}
	assert.True(t, errors.Is(wrapped, ErrUpstreamTimeout))
}
