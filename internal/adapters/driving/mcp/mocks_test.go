package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

// mockSessionManager is a mock implementation of driving.SessionManager.
type mockSessionManager struct {
	sessions  map[string]*mockSession
	createErr error
	closed    []string
}

func newMockSessionManager(sessions ...*mockSession) *mockSessionManager {
	m := &mockSessionManager{sessions: make(map[string]*mockSession)}
	for _, s := range sessions {
		m.sessions[s.id] = s
	}
	return m
}

func (m *mockSessionManager) Create(_ context.Context) (driving.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := newMockSession(fmt.Sprintf("session-%d", len(m.sessions)+1))
	m.sessions[s.id] = s
	return s, nil
}

func (m *mockSessionManager) Get(id string) (driving.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *mockSessionManager) List() []string {
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *mockSessionManager) Close(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.closed = append(m.closed, id)
	return nil
}

func (m *mockSessionManager) CloseAll(ctx context.Context) error {
	for _, id := range m.List() {
		_ = m.Close(ctx, id)
	}
	return nil
}

// mockSession is a mock implementation of driving.Session.
type mockSession struct {
	id      string
	corpus  *mockCorpus
	turns   []domain.ConversationTurn
	answer  *domain.GroundedAnswer
	askErr  error
	memo    *domain.InvestmentMemo
	memoErr error
	version int
	asked   []string
}

func newMockSession(id string) *mockSession {
	return &mockSession{id: id, corpus: &mockCorpus{}}
}

func (m *mockSession) ID() string { return m.id }

func (m *mockSession) Corpus() driving.CorpusManager { return m.corpus }

func (m *mockSession) Ask(_ context.Context, question string) (domain.ConversationTurn, error) {
	m.asked = append(m.asked, question)
	if m.askErr != nil {
		return domain.ConversationTurn{Role: domain.RoleSystem, Error: m.askErr.Error()}, m.askErr
	}
	return domain.ConversationTurn{Role: domain.RoleAssistant, Text: m.answer.Answer, Answer: m.answer}, nil
}

func (m *mockSession) History(_ context.Context) ([]domain.ConversationTurn, error) {
	return m.turns, nil
}

func (m *mockSession) GenerateMemo(_ context.Context) (*domain.InvestmentMemo, error) {
	return m.memo, m.memoErr
}

func (m *mockSession) IsStale(version int) bool {
	return version != m.version
}

// mockCorpus is a mock implementation of driving.CorpusManager.
type mockCorpus struct {
	status   domain.CorpusStatus
	uploads  []domain.Upload
	regErr   error
	job      *mockJob
	waitErr  error
	waitDone bool
}

func (m *mockCorpus) Register(_ context.Context, upload domain.Upload) (driving.Registration, error) {
	if m.regErr != nil {
		return driving.Registration{}, m.regErr
	}
	m.uploads = append(m.uploads, upload)
	doc := domain.Document{ID: "doc-1", Name: upload.Filename, Status: domain.IndexPending, MIMEType: upload.DeclaredType}
	job := m.job
	if job == nil {
		done := doc
		done.Status = domain.IndexIndexed
		job = &mockJob{doc: done}
	}
	return driving.Registration{Document: doc, Job: job}, nil
}

func (m *mockCorpus) Status(_ context.Context) domain.CorpusStatus { return m.status }

func (m *mockCorpus) RequireReady(_ context.Context) (domain.CorpusHandle, error) {
	return domain.CorpusHandle{}, nil
}

func (m *mockCorpus) Wait(_ context.Context) error {
	m.waitDone = true
	return m.waitErr
}

func (m *mockCorpus) Document(_ context.Context, id string) (domain.Document, error) {
	return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
}

// mockJob is a mock implementation of driving.IndexJob.
type mockJob struct {
	doc domain.Document
	err error
}

func (j *mockJob) DocumentID() string { return j.doc.ID }

func (j *mockJob) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (j *mockJob) Wait(_ context.Context) (domain.Document, error) { return j.doc, j.err }
