package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockIndex implements driven.DocumentIndex for testing.
type mockIndex struct {
	mu         sync.Mutex
	indexCalls map[string]int
	indexErrs  map[string]error
	blocks     map[string]chan struct{}
	dropped    []string

	// passages, when set, is returned by every search.
	passages  []domain.Passage
	searchErr error
	// searchBlocks makes Search wait for ctx to end.
	searchBlocks bool
	lastTopK     int
}

func newMockIndex() *mockIndex {
	return &mockIndex{
		indexCalls: make(map[string]int),
		indexErrs:  make(map[string]error),
		blocks:     make(map[string]chan struct{}),
	}
}

// block makes indexing of name wait until the returned func is called.
func (m *mockIndex) block(name string) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	m.blocks[name] = ch
	m.mu.Unlock()
	return func() { close(ch) }
}

func (m *mockIndex) calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexCalls[name]
}

func (m *mockIndex) Index(ctx context.Context, _ string, doc *domain.Document) (domain.IndexHandle, error) {
	m.mu.Lock()
	m.indexCalls[doc.Name]++
	err := m.indexErrs[doc.Name]
	ch := m.blocks[doc.Name]
	m.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return domain.IndexHandle("h-" + doc.ID), nil
}

func (m *mockIndex) Search(ctx context.Context, corpus domain.CorpusHandle, _ string, topK int) ([]domain.Passage, error) {
	m.mu.Lock()
	m.lastTopK = topK
	passages := m.passages
	m.mu.Unlock()

	if m.searchBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if passages != nil {
		return passages, nil
	}

	// One passage per corpus document, ordered by name.
	ids := make([]string, 0, len(corpus.Documents))
	for id := range corpus.Documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return corpus.Documents[ids[i]] < corpus.Documents[ids[j]] })
	for _, id := range ids {
		name := corpus.Documents[id]
		passages = append(passages, domain.Passage{
			Text:         "content of " + name,
			DocumentID:   id,
			DocumentName: name,
			Locator:      domain.Locator{Page: 1},
			Score:        0.9,
		})
	}
	return passages, nil
}

func (m *mockIndex) DropCorpus(_ context.Context, corpusID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, corpusID)
	return nil
}

func (m *mockIndex) Name() string { return "mock" }

func (m *mockIndex) Close() error { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu           sync.Mutex
	reply        string
	replyFn      func(messages []driven.ChatMessage) string
	err          error
	calls        int
	lastMessages []driven.ChatMessage
	lastOpts     driven.ChatOptions
	blocks       bool
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastMessages = messages
	m.lastOpts = opts
	reply, replyFn, err := m.reply, m.replyFn, m.err
	m.mu.Unlock()

	if m.blocks {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if replyFn != nil {
		return replyFn(messages), nil
	}
	return reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPrompts implements driven.PromptStore for testing.
// Unknown names return "Q:<name>" so memo questions are distinguishable.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "Q:" + name, nil
}

func (m *mockPrompts) Reload() {}

// recordingMetrics implements driven.MetricsRecorder for testing.
type recordingMetrics struct {
	mu         sync.Mutex
	jobs       map[domain.IndexStatus]int
	queries    map[domain.Confidence]int
	verdicts   []domain.Verdict
	timeoutOps []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		jobs:    make(map[domain.IndexStatus]int),
		queries: make(map[domain.Confidence]int),
	}
}

func (r *recordingMetrics) IndexJobFinished(status domain.IndexStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[status]++
}

func (r *recordingMetrics) QueryAnswered(confidence domain.Confidence, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[confidence]++
}

func (r *recordingMetrics) MemoGenerated(verdict domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, verdict)
}

func (r *recordingMetrics) UpstreamTimeout(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeoutOps = append(r.timeoutOps, op)
}

func (r *recordingMetrics) timeouts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.timeoutOps...)
}

func (r *recordingMetrics) jobCount(status domain.IndexStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[status]
}
