package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles the document format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyDocument indicates an upload with no bytes or no extractable text.
	ErrEmptyDocument = errors.New("empty document")

	// ErrNotReady indicates a query against a corpus that is not ready.
	// Returned errors are *NotReadyError values that match this sentinel.
	ErrNotReady = errors.New("corpus not ready")

	// ErrUpstreamTimeout indicates an external call exceeded its time bound.
	// Returned errors are *UpstreamTimeoutError values that match this sentinel.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// The semantic index backend needs embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IndexError reports that a single document could not be indexed.
type IndexError struct {
	// DocumentName is the uploaded filename.
	DocumentName string

	// Err is the underlying cause.
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.DocumentName, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// NotReadyError reports a query attempted against a corpus that is not ready.
type NotReadyError struct {
	// Readiness is the corpus state at the time of the query.
	Readiness Readiness

	// Reason explains what is blocking readiness.
	Reason string

	// Err is an optional underlying cause, such as a context deadline.
	Err error
}

func (e *NotReadyError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("corpus not ready (%s)", e.Readiness)
	}
	return fmt.Sprintf("corpus not ready (%s): %s", e.Readiness, e.Reason)
}

func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotReady.
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// UpstreamTimeoutError reports an adapter call that exceeded its bound.
type UpstreamTimeoutError struct {
	// Op names the operation, e.g. "index", "search" or "generate".
	Op string

	// Timeout is the bound that was exceeded.
	Timeout time.Duration

	// Err is the underlying cause.
	Err error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

func (e *UpstreamTimeoutError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpstreamTimeout.
func (e *UpstreamTimeoutError) Is(target error) bool {
	return target == ErrUpstreamTimeout
}

// Retryable reports that the operation may be safely repeated.
func (e *UpstreamTimeoutError) Retryable() bool {
	return true
}
