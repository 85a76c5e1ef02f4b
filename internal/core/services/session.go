package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.Session = (*Session)(nil)

// Session is one analysis session: a corpus and its conversation.
// Asks are serialized so turns are appended in order.
type Session struct {
	id         string
	corpus     *CorpusService
	engine     driving.QueryEngine
	memo       driving.MemoSynthesizer
	index      driven.DocumentIndex
	transcript driven.TranscriptStore

	mu     sync.Mutex
	seq    int
	tier   domain.ModelTier
	closed bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Corpus returns the session's corpus manager.
func (s *Session) Corpus() driving.CorpusManager {
	return s.corpus
}

// SetTier changes the model tier used for subsequent questions.
func (s *Session) SetTier(tier domain.ModelTier) error {
	if !tier.IsValid() {
		return fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidInput, tier)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tier = tier
	return nil
}

// Tier returns the model tier used for questions.
func (s *Session) Tier() domain.ModelTier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Ask records the question, answers it and records the answer.
// Failures are recorded as a system turn and returned alongside it.
func (s *Session) Ask(ctx context.Context, question string) (domain.ConversationTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ConversationTurn{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ConversationTurn{}, domain.ErrSessionClosed
	}

	history, err := s.transcript.List(ctx, s.id)
	if err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("load transcript: %w", err)
	}
	if _, err := s.appendLocked(ctx, domain.ConversationTurn{Role: domain.RoleUser, Text: question}); err != nil {
		return domain.ConversationTurn{}, err
	}

	corpus, err := s.corpus.RequireReady(ctx)
	if err != nil {
		return s.recordFailureLocked(ctx, err)
	}

	answer, err := s.engine.Ask(ctx, corpus, question, domain.AskOptions{History: history, Tier: s.tier})
	if err != nil {
		return s.recordFailureLocked(ctx, err)
	}

	return s.appendLocked(ctx, domain.ConversationTurn{
		Role:   domain.RoleAssistant,
		Text:   answer.Answer,
		Answer: answer,
	})
}

// recordFailureLocked appends a system turn describing cause and returns cause.
// The turn is written even if ctx has been cancelled.
func (s *Session) recordFailureLocked(ctx context.Context, cause error) (domain.ConversationTurn, error) {
	turn, err := s.appendLocked(context.WithoutCancel(ctx), domain.ConversationTurn{
		Role:  domain.RoleSystem,
		Text:  "The question could not be answered.",
		Error: cause.Error(),
	})
	if err != nil {
		logger.Warn("session %s: record failure: %v", s.id, err)
	}
	return turn, cause
}

func (s *Session) appendLocked(ctx context.Context, turn domain.ConversationTurn) (domain.ConversationTurn, error) {
	turn.Seq = s.seq + 1
	turn.CreatedAt = time.Now()
	if err := s.transcript.Append(ctx, s.id, turn); err != nil {
		return domain.ConversationTurn{}, fmt.Errorf("append %s turn: %w", turn.Role, err)
	}
	s.seq = turn.Seq
	return turn, nil
}

// History returns the transcript in order.
func (s *Session) History(ctx context.Context) ([]domain.ConversationTurn, error) {
	return s.transcript.List(ctx, s.id)
}

// GenerateMemo produces the investor memo for the ready corpus.
// The memo is not recorded in the transcript.
func (s *Session) GenerateMemo(ctx context.Context) (*domain.InvestmentMemo, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, domain.ErrSessionClosed
	}

	corpus, err := s.corpus.RequireReady(ctx)
	if err != nil {
		return nil, err
	}
	return s.memo.Run(ctx, corpus)
}

// IsStale reports whether documents were added after version.
func (s *Session) IsStale(version int) bool {
	return s.corpus.Version() != version
}

// Close cancels indexing, drops the indexed corpus and the transcript.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.corpus.Close()

	var errs []error
	if err := s.index.DropCorpus(ctx, s.id); err != nil {
		errs = append(errs, fmt.Errorf("drop corpus: %w", err))
	}
	if err := s.transcript.Drop(ctx, s.id); err != nil {
		errs = append(errs, fmt.Errorf("drop transcript: %w", err))
	}
	return errors.Join(errs...)
}
