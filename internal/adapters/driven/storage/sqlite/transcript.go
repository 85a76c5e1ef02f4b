package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// transcriptStore implements driven.TranscriptStore.
type transcriptStore struct {
	store *Store
}

var _ driven.TranscriptStore = (*transcriptStore)(nil)

// Append stores a turn. Sequence numbers are unique per session.
func (t *transcriptStore) Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	var answerJSON sql.NullString
	if turn.Answer != nil {
		data, err := json.Marshal(turn.Answer)
		if err != nil {
			return fmt.Errorf("marshalling answer: %w", err)
		}
		answerJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := t.store.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, role, text, answer, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, turn.Seq, string(turn.Role), turn.Text, answerJSON, turn.Error, turn.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// List returns the session's turns in sequence order.
func (t *transcriptStore) List(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	rows, err := t.store.db.QueryContext(ctx, `
		SELECT seq, role, text, answer, error, created_at
		FROM turns WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			turn       domain.ConversationTurn
			role       string
			answerJSON sql.NullString
		)
		if err := rows.Scan(&turn.Seq, &role, &turn.Text, &answerJSON, &turn.Error, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = domain.Role(role)
		if answerJSON.Valid && answerJSON.String != jsonNull {
			var answer domain.GroundedAnswer
			if err := json.Unmarshal([]byte(answerJSON.String), &answer); err != nil {
				return nil, fmt.Errorf("unmarshalling answer: %w", err)
			}
			turn.Answer = &answer
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Drop deletes every turn of the session.
func (t *transcriptStore) Drop(ctx context.Context, sessionID string) error {
	if _, err := t.store.db.ExecContext(ctx, "DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	return nil
}
