package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusManager = (*CorpusService)(nil)

// DefaultIndexTimeout bounds a single indexing job when none is configured.
const DefaultIndexTimeout = 5 * time.Minute

// CorpusConfig configures a CorpusService.
type CorpusConfig struct {
	// IndexTimeout bounds each document's indexing job.
	IndexTimeout time.Duration

	// Metrics receives job completions. Nil discards them.
	Metrics driven.MetricsRecorder
}

// CorpusService tracks the documents of one session and runs one indexing
// goroutine per upload. Status transitions happen under mu; a job's done
// channel is closed only after its document reaches a terminal status.
type CorpusService struct {
	sessionID string
	index     driven.DocumentIndex
	timeout   time.Duration
	metrics   driven.MetricsRecorder

	// jobCtx parents every indexing job. Close cancels it.
	jobCtx    context.Context
	cancelJob context.CancelFunc
	wg        sync.WaitGroup

	mu      sync.RWMutex
	order   []string
	entries map[string]*corpusEntry
	byHash  map[string]*corpusEntry
	version int
	closed  bool
}

type corpusEntry struct {
	doc domain.Document
	job *indexJob
}

// NewCorpusService creates an empty corpus for a session.
func NewCorpusService(sessionID string, index driven.DocumentIndex, cfg CorpusConfig) *CorpusService {
	if cfg.IndexTimeout <= 0 {
		cfg.IndexTimeout = DefaultIndexTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	jobCtx, cancel := context.WithCancel(context.Background())
	return &CorpusService{
		sessionID: sessionID,
		index:     index,
		timeout:   cfg.IndexTimeout,
		metrics:   cfg.Metrics,
		jobCtx:    jobCtx,
		cancelJob: cancel,
		entries:   make(map[string]*corpusEntry),
		byHash:    make(map[string]*corpusEntry),
	}
}

// SessionID returns the owning session.
func (s *CorpusService) SessionID() string {
	return s.sessionID
}

// Register validates an upload and starts indexing it.
// The indexing job is detached from ctx: it runs until it finishes, times
// out or the corpus is closed.
func (s *CorpusService) Register(ctx context.Context, upload domain.Upload) (driving.Registration, error) {
	if err := ctx.Err(); err != nil {
		return driving.Registration{}, err
	}

	name := strings.TrimSpace(upload.Filename)
	if name == "" {
		return driving.Registration{}, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(upload.Content) == 0 {
		return driving.Registration{}, &domain.IndexError{DocumentName: name, Err: domain.ErrEmptyDocument}
	}

	hash := domain.ContentHash(upload.Content)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return driving.Registration{}, domain.ErrSessionClosed
	}
	if existing, ok := s.byHash[hash]; ok {
		reg := driving.Registration{Document: existing.doc, Duplicate: true, Job: existing.job}
		s.mu.Unlock()
		logger.Debug("corpus %s: %s duplicates %s, not reindexed", s.sessionID, name, existing.doc.Name)
		return reg, nil
	}

	doc := domain.Document{
		ID:          uuid.New().String(),
		Name:        name,
		ContentHash: hash,
		Content:     upload.Content,
		MIMEType:    upload.DeclaredType,
		UploadedAt:  time.Now(),
		Status:      domain.IndexPending,
	}
	entry := &corpusEntry{
		doc: doc,
		job: &indexJob{documentID: doc.ID, corpus: s, done: make(chan struct{})},
	}
	s.entries[doc.ID] = entry
	s.byHash[hash] = entry
	s.order = append(s.order, doc.ID)
	s.version++
	s.wg.Add(1)
	s.mu.Unlock()

	logger.Debug("corpus %s: registered %s (%d bytes)", s.sessionID, name, len(upload.Content))
	go s.run(entry.job, doc)

	return driving.Registration{Document: doc, Job: entry.job}, nil
}

// run indexes one document and records its terminal status.
func (s *CorpusService) run(job *indexJob, doc domain.Document) {
	defer s.wg.Done()
	started := time.Now()

	ctx, cancel := context.WithTimeout(s.jobCtx, s.timeout)
	handle, err := s.index.Index(ctx, s.sessionID, &doc)
	if err == nil && handle == "" {
		err = fmt.Errorf("%s returned no handle", s.index.Name())
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamTimeout) {
		err = &domain.UpstreamTimeoutError{Op: "index", Timeout: s.timeout, Err: err}
		s.metrics.UpstreamTimeout("index")
	}
	cancel()

	s.mu.Lock()
	entry := s.entries[job.documentID]
	entry.doc.IndexedAt = time.Now()
	if err != nil {
		entry.doc.Status = domain.IndexFailed
		entry.doc.Failure = err.Error()
		job.err = &domain.IndexError{DocumentName: doc.Name, Err: err}
	} else {
		entry.doc.Status = domain.IndexIndexed
		entry.doc.Handle = handle
	}
	status := entry.doc.Status
	close(job.done)
	s.mu.Unlock()

	elapsed := time.Since(started)
	s.metrics.IndexJobFinished(status, elapsed)
	if err != nil {
		logger.Warn("corpus %s: indexing %s failed: %v", s.sessionID, doc.Name, err)
		return
	}
	logger.Debug("corpus %s: indexed %s in %s", s.sessionID, doc.Name, elapsed.Round(time.Millisecond))
}

// Status returns a consistent snapshot of the corpus.
func (s *CorpusService) Status(_ context.Context) domain.CorpusStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.snapshotLocked()
	return domain.CorpusStatus{
		SessionID: s.sessionID,
		Documents: docs,
		Readiness: domain.ComputeReadiness(docs),
		Version:   s.version,
	}
}

// Version returns the current corpus version.
func (s *CorpusService) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// RequireReady returns a query handle when every document is indexed.
func (s *CorpusService) RequireReady(_ context.Context) (domain.CorpusHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.CorpusHandle{}, domain.ErrSessionClosed
	}

	docs := s.snapshotLocked()
	readiness := domain.ComputeReadiness(docs)
	if readiness != domain.ReadinessReady {
		return domain.CorpusHandle{}, &domain.NotReadyError{
			Readiness: readiness,
			Reason:    notReadyReason(readiness, docs),
		}
	}

	handle := domain.CorpusHandle{
		SessionID: s.sessionID,
		Version:   s.version,
		Documents: make(map[string]string, len(docs)),
		Handles:   make(map[string]domain.IndexHandle, len(docs)),
	}
	for i := range docs {
		handle.Documents[docs[i].ID] = docs[i].Name
		handle.Handles[docs[i].ID] = docs[i].Handle
	}
	return handle, nil
}

// Wait blocks until every job registered so far has finished.
// Failed jobs do not make Wait fail; check Status or RequireReady.
func (s *CorpusService) Wait(ctx context.Context) error {
	s.mu.RLock()
	jobs := make([]*indexJob, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, s.entries[id].job)
	}
	s.mu.RUnlock()

	for _, job := range jobs {
		select {
		case <-job.done:
		case <-ctx.Done():
			status := s.Status(ctx)
			return &domain.NotReadyError{
				Readiness: status.Readiness,
				Reason:    "indexing did not finish in time",
				Err:       ctx.Err(),
			}
		}
	}
	return nil
}

// Document returns a copy of a single document.
func (s *CorpusService) Document(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return entry.doc, nil
}

// Close cancels in-flight jobs and waits for them to finish.
// Documents whose job was cancelled end up Failed.
func (s *CorpusService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelJob()
	s.wg.Wait()
}

// snapshotLocked copies the documents in upload order. Caller holds mu.
func (s *CorpusService) snapshotLocked() []domain.Document {
	docs := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.entries[id].doc)
	}
	return docs
}

func notReadyReason(readiness domain.Readiness, docs []domain.Document) string {
	switch readiness {
	case domain.ReadinessEmpty:
		return "no documents uploaded"
	case domain.ReadinessIndexing:
		pending := 0
		for i := range docs {
			if docs[i].Status == domain.IndexPending {
				pending++
			}
		}
		return fmt.Sprintf("%d of %d documents still indexing", pending, len(docs))
	case domain.ReadinessDegraded:
		var failed []string
		for i := range docs {
			if docs[i].Status == domain.IndexFailed {
				failed = append(failed, fmt.Sprintf("%s (%s)", docs[i].Name, docs[i].Failure))
			}
		}
		return "failed to index: " + strings.Join(failed, "; ")
	default:
		return readiness.Description()
	}
}

// indexJob is the future for one document's indexing.
type indexJob struct {
	documentID string
	corpus     *CorpusService
	done       chan struct{}

	// err is written before done is closed and read only after.
	err error
}

// DocumentID identifies the document being indexed.
func (j *indexJob) DocumentID() string {
	return j.documentID
}

// Done is closed once the document reaches a terminal status.
func (j *indexJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends.
func (j *indexJob) Wait(ctx context.Context) (domain.Document, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		doc, _ := j.corpus.Document(ctx, j.documentID)
		return doc, ctx.Err()
	}
	doc, err := j.corpus.Document(ctx, j.documentID)
	if err != nil {
		return doc, err
	}
	return doc, j.err
}
