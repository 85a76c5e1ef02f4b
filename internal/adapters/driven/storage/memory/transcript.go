package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// Ensure TranscriptStore implements the interface.
var _ driven.TranscriptStore = (*TranscriptStore)(nil)

// TranscriptStore keeps conversation turns in memory, per session.
// Turns are copied on the way in and out so callers cannot alter history.
type TranscriptStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.ConversationTurn
}

// NewTranscriptStore creates an empty transcript store.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{turns: make(map[string][]domain.ConversationTurn)}
}

// Append adds a turn. Its Seq must be greater than the last stored turn's.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.turns[sessionID]
	if n := len(existing); n > 0 && turn.Seq <= existing[n-1].Seq {
		return fmt.Errorf("%w: turn %d after %d", domain.ErrInvalidInput, turn.Seq, existing[n-1].Seq)
	}
	s.turns[sessionID] = append(existing, copyTurn(turn))
	return nil
}

// List returns a copy of the session's turns in order.
func (s *TranscriptStore) List(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[sessionID]
	out := make([]domain.ConversationTurn, len(stored))
	for i := range stored {
		out[i] = copyTurn(stored[i])
	}
	return out, nil
}

// Drop removes the session's transcript.
func (s *TranscriptStore) Drop(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

func copyTurn(t domain.ConversationTurn) domain.ConversationTurn {
	if t.Answer != nil {
		answer := *t.Answer
		answer.Citations = append([]domain.Citation(nil), t.Answer.Citations...)
		t.Answer = &answer
	}
	return t
}
