package index

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/throttle"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure Resilient implements the interface.
var _ driven.DocumentIndex = (*Resilient)(nil)

// DefaultInitialBackoff is the delay before the first retry.
const DefaultInitialBackoff = 500 * time.Millisecond

// Options configures a Resilient index.
type Options struct {
	// IndexTimeout bounds each Index attempt. Zero means no per-attempt bound.
	IndexTimeout time.Duration

	// SearchTimeout bounds each Search attempt. Zero means no per-attempt bound.
	SearchTimeout time.Duration

	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int

	// InitialBackoff is the delay before the first retry; it doubles after each.
	InitialBackoff time.Duration

	// RequestsPerSecond limits calls to the wrapped index. Zero disables limiting.
	RequestsPerSecond float64

	// Metrics records upstream timeouts. Nil discards them.
	Metrics driven.MetricsRecorder
}

// Resilient decorates a DocumentIndex with timeouts, rate limiting and retries.
// Only transient failures (timeouts, rate limiting) are retried.
type Resilient struct {
	inner   driven.DocumentIndex
	opts    Options
	limiter *throttle.Limiter
}

// NewResilient wraps inner.
func NewResilient(inner driven.DocumentIndex, opts Options) *Resilient {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Metrics == nil {
		opts.Metrics = driven.NopMetrics{}
	}
	return &Resilient{
		inner:   inner,
		opts:    opts,
		limiter: throttle.New(throttle.Config{RequestsPerSecond: opts.RequestsPerSecond, BurstSize: 1}),
	}
}

// Name returns the wrapped backend name.
func (r *Resilient) Name() string {
	return r.inner.Name()
}

// Index indexes doc through the wrapped backend.
func (r *Resilient) Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error) {
	var handle domain.IndexHandle
	err := r.retry(ctx, "index", r.opts.IndexTimeout, func(ctx context.Context) error {
		h, err := r.inner.Index(ctx, corpusID, doc)
		handle = h
		return err
	})
	return handle, err
}

// Search searches through the wrapped backend.
func (r *Resilient) Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error) {
	var passages []domain.Passage
	err := r.retry(ctx, "search", r.opts.SearchTimeout, func(ctx context.Context) error {
		p, err := r.inner.Search(ctx, corpus, query, topK)
		passages = p
		return err
	})
	return passages, err
}

// DropCorpus drops the corpus in the wrapped backend. It is never retried.
func (r *Resilient) DropCorpus(ctx context.Context, corpusID string) error {
	return r.inner.DropCorpus(ctx, corpusID)
}

// Close closes the wrapped backend.
func (r *Resilient) Close() error {
	return r.inner.Close()
}

// retry runs op with a per-attempt timeout, retrying transient failures
// with exponential backoff.
func (r *Resilient) retry(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	backoff := r.opts.InitialBackoff

	for attempt := 0; ; attempt++ {
		err := r.attempt(ctx, op, timeout, fn)
		if err == nil {
			if attempt > 0 {
				logger.Debug("%s recovered after %d retries", op, attempt)
			}
			return nil
		}

		if !isTransient(err) || attempt >= r.opts.MaxRetries || ctx.Err() != nil {
			return err
		}

		logger.Debug("retrying %s after transient error (attempt %d/%d, backoff %s): %v",
			op, attempt+1, r.opts.MaxRetries, backoff, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff *= 2
	}
}

// attempt runs fn once under the rate limit and per-attempt timeout.
// A per-attempt deadline is reported as an UpstreamTimeoutError; the
// caller's own deadline is passed through unchanged.
func (r *Resilient) attempt(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		r.opts.Metrics.UpstreamTimeout(op)
		return &domain.UpstreamTimeoutError{Op: op, Timeout: timeout, Err: err}
	}
	return err
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, domain.ErrRateLimited)
}
