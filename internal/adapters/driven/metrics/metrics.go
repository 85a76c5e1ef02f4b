// Package metrics records pipeline events as Prometheus metrics.
//
// Metrics:
//   - diligence_index_jobs_total{status}: documents reaching a terminal status
//   - diligence_index_job_duration_seconds: time from upload to terminal status
//   - diligence_queries_total{confidence}: grounded queries answered
//   - diligence_query_duration_seconds: time to answer a grounded query
//   - diligence_memos_total{verdict}: investor memos generated
//   - diligence_upstream_timeouts_total{op}: external calls that hit their bound
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "diligence"

// Recorder holds the Prometheus collectors on a private registry, so several
// recorders can coexist in one process (tests, multiple servers).
type Recorder struct {
	registry *prometheus.Registry

	indexJobs        *prometheus.CounterVec
	indexJobDuration prometheus.Histogram
	queries          *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	memos            *prometheus.CounterVec
	upstreamTimeouts *prometheus.CounterVec
}

// New creates a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		indexJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_jobs_total",
			Help:      "Documents that reached a terminal indexing status",
		}, []string{"status"}),
		indexJobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_job_duration_seconds",
			Help:      "Time from upload to terminal indexing status",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Grounded queries answered",
		}, []string{"confidence"}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to answer a grounded query",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 90, 180},
		}),
		memos: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memos_total",
			Help:      "Investor memos generated",
		}, []string{"verdict"}),
		upstreamTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_timeouts_total",
			Help:      "External calls that exceeded their time bound",
		}, []string{"op"}),
	}
}

// IndexJobFinished records a document reaching a terminal status.
func (r *Recorder) IndexJobFinished(status domain.IndexStatus, elapsed time.Duration) {
	r.indexJobs.WithLabelValues(status.String()).Inc()
	r.indexJobDuration.Observe(elapsed.Seconds())
}

// QueryAnswered records a completed grounded query.
func (r *Recorder) QueryAnswered(confidence domain.Confidence, elapsed time.Duration) {
	r.queries.WithLabelValues(confidence.String()).Inc()
	r.queryDuration.Observe(elapsed.Seconds())
}

// MemoGenerated records a completed memo.
func (r *Recorder) MemoGenerated(verdict domain.Verdict) {
	r.memos.WithLabelValues(verdict.String()).Inc()
}

// UpstreamTimeout records an external call that exceeded its bound.
func (r *Recorder) UpstreamTimeout(op string) {
	r.upstreamTimeouts.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
