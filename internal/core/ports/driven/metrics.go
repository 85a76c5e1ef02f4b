package driven

import (
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// MetricsRecorder receives pipeline events for monitoring.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// IndexJobFinished records a document reaching a terminal status.
	IndexJobFinished(status domain.IndexStatus, elapsed time.Duration)

	// QueryAnswered records a completed grounded query.
	QueryAnswered(confidence domain.Confidence, elapsed time.Duration)

	// MemoGenerated records a completed investor memo.
	MemoGenerated(verdict domain.Verdict)

	// UpstreamTimeout records an external call that exceeded its bound.
	UpstreamTimeout(op string)
}

// NopMetrics discards all events.
type NopMetrics struct{}

// IndexJobFinished does nothing.
func (NopMetrics) IndexJobFinished(domain.IndexStatus, time.Duration) {}

// QueryAnswered does nothing.
func (NopMetrics) QueryAnswered(domain.Confidence, time.Duration) {}

// MemoGenerated does nothing.
func (NopMetrics) MemoGenerated(domain.Verdict) {}

// UpstreamTimeout does nothing.
func (NopMetrics) UpstreamTimeout(string) {}
