package index

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// stubIndex scripts the results of successive calls.
type stubIndex struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	block    bool
	closed   bool
	dropped  []string
	passages []domain.Passage
}

func (s *stubIndex) next(ctx context.Context) error {
	s.mu.Lock()
	n := s.calls
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n < len(s.errs) {
		return s.errs[n]
	}
	return nil
}

func (s *stubIndex) Index(ctx context.Context, _ string, doc *domain.Document) (domain.IndexHandle, error) {
	if err := s.next(ctx); err != nil {
		return "", err
	}
	return domain.IndexHandle("h-" + doc.ID), nil
}

func (s *stubIndex) Search(ctx context.Context, _ domain.CorpusHandle, _ string, _ int) ([]domain.Passage, error) {
	if err := s.next(ctx); err != nil {
		return nil, err
	}
	return s.passages, nil
}

func (s *stubIndex) DropCorpus(_ context.Context, corpusID string) error {
	s.dropped = append(s.dropped, corpusID)
	return nil
}

func (s *stubIndex) Name() string { return "stub" }

func (s *stubIndex) Close() error {
	s.closed = true
	return nil
}

func (s *stubIndex) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// timeoutCounter counts upstream timeouts.
type timeoutCounter struct {
	driven.NopMetrics
	mu  sync.Mutex
	ops []string
}

func (c *timeoutCounter) UpstreamTimeout(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, op)
}

func TestResilient_PassThrough(t *testing.T) {
	inner := &stubIndex{passages: []domain.Passage{{DocumentID: "d1", Text: "roof", Score: 0.9}}}
	r := NewResilient(inner, Options{})

	h, err := r.Index(context.Background(), "s1", &domain.Document{ID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, domain.IndexHandle("h-d1"), h)

	passages, err := r.Search(context.Background(), domain.CorpusHandle{SessionID: "s1"}, "roof", 3)
	require.NoError(t, err)
	assert.Len(t, passages, 1)

	require.NoError(t, r.DropCorpus(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, inner.dropped)
	assert.Equal(t, "stub", r.Name())
	require.NoError(t, r.Close())
	assert.True(t, inner.closed)
}

func TestResilient_TimeoutBecomesUpstreamTimeout(t *testing.T) {
	inner := &stubIndex{block: true}
	metrics := &timeoutCounter{}
	r := NewResilient(inner, Options{SearchTimeout: 20 * time.Millisecond, Metrics: metrics})

	_, err := r.Search(context.Background(), domain.CorpusHandle{}, "q", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamTimeout))

	var ute *domain.UpstreamTimeoutError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "search", ute.Op)
	assert.Equal(t, 20*time.Millisecond, ute.Timeout)
	assert.Equal(t, []string{"search"}, metrics.ops)
	assert.Equal(t, 1, inner.callCount())
}

func TestResilient_CallerCancellationIsNotTimeout(t *testing.T) {
	inner := &stubIndex{block: true}
	r := NewResilient(inner, Options{IndexTimeout: time.Minute, MaxRetries: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Index(ctx, "s1", &domain.Document{ID: "d1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUpstreamTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, inner.callCount())
}

func TestResilient_RetriesTransientFailures(t *testing.T) {
	inner := &stubIndex{errs: []error{domain.ErrRateLimited, domain.ErrRateLimited}}
	r := NewResilient(inner, Options{MaxRetries: 2, InitialBackoff: time.Millisecond})

	h, err := r.Index(context.Background(), "s1", &domain.Document{ID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, domain.IndexHandle("h-d1"), h)
	assert.Equal(t, 3, inner.callCount())
}

func TestResilient_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &stubIndex{errs: []error{domain.ErrRateLimited, domain.ErrRateLimited, domain.ErrRateLimited}}
	r := NewResilient(inner, Options{MaxRetries: 1, InitialBackoff: time.Millisecond})

	_, err := r.Search(context.Background(), domain.CorpusHandle{}, "q", 3)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 2, inner.callCount())
}

func TestResilient_NoRetriesByDefault(t *testing.T) {
	inner := &stubIndex{errs: []error{domain.ErrRateLimited}}
	r := NewResilient(inner, Options{})

	_, err := r.Search(context.Background(), domain.CorpusHandle{}, "q", 3)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, inner.callCount())
}

func TestResilient_PermanentErrorsAreNotRetried(t *testing.T) {
	inner := &stubIndex{errs: []error{domain.ErrUnsupportedType}}
	r := NewResilient(inner, Options{MaxRetries: 3, InitialBackoff: time.Millisecond})

	_, err := r.Index(context.Background(), "s1", &domain.Document{ID: "d1"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Equal(t, 1, inner.callCount())
}
