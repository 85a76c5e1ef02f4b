package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionManager = (*SessionManager)(nil)

// SessionDeps holds the collaborators shared by every session.
type SessionDeps struct {
	// Index stores every session's corpus, keyed by session ID.
	Index driven.DocumentIndex

	// LLM answers questions. May be nil.
	LLM driven.LLMService

	// Prompts supplies the answer and memo prompts.
	Prompts driven.PromptStore

	// Transcript stores conversation turns.
	Transcript driven.TranscriptStore

	// Settings supplies timeouts, retrieval and tier settings.
	Settings domain.AppSettings

	// Metrics receives pipeline events. Nil discards them.
	Metrics driven.MetricsRecorder
}

// SessionManager creates and tracks isolated sessions.
// The query engine and memo synthesizer are stateless and shared; each
// session owns its corpus.
type SessionManager struct {
	deps   SessionDeps
	engine *GroundedQueryEngine
	memo   *MemoService

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager(deps SessionDeps) *SessionManager {
	if deps.Metrics == nil {
		deps.Metrics = driven.NopMetrics{}
	}
	engine := NewGroundedQueryEngine(deps.Index, deps.LLM, deps.Prompts,
		QueryConfigFromSettings(deps.Settings, deps.Metrics))
	memo := NewMemoService(engine, deps.Prompts, MemoConfig{
		Tier:    deps.Settings.Memo.Tier,
		Metrics: deps.Metrics,
	})
	return &SessionManager{
		deps:     deps,
		engine:   engine,
		memo:     memo,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with an empty corpus.
func (m *SessionManager) Create(ctx context.Context) (driving.Session, error) {
	return m.CreateSession(ctx)
}

// CreateSession is Create returning the concrete type.
func (m *SessionManager) CreateSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	tier := m.deps.Settings.LLM.Tier
	if !tier.IsValid() {
		tier = domain.TierFast
	}
	session := &Session{
		id: id,
		corpus: NewCorpusService(id, m.deps.Index, CorpusConfig{
			IndexTimeout: m.deps.Settings.Timeouts.Index,
			Metrics:      m.deps.Metrics,
		}),
		engine:     m.engine,
		memo:       m.memo,
		index:      m.deps.Index,
		transcript: m.deps.Transcript,
		tier:       tier,
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	logger.Debug("session %s created (index %s)", id, m.deps.Index.Name())
	return session, nil
}

// Get returns an open session.
func (m *SessionManager) Get(id string) (driving.Session, error) {
	return m.GetSession(id)
}

// GetSession is Get returning the concrete type.
func (m *SessionManager) GetSession(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return session, nil
}

// List returns the IDs of open sessions in sorted order.
func (m *SessionManager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close ends a session and releases its corpus.
func (m *SessionManager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	logger.Debug("session %s closed", id)
	return session.Close(ctx)
}

// CloseAll ends every open session.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.List() {
		if err := m.Close(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
