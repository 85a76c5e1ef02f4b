package domain

import "time"

// Role identifies who produced a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one entry in an append-only session transcript.
type ConversationTurn struct {
	// Seq is the 1-based position in the transcript.
	Seq int

	// Role is who produced the turn.
	Role Role

	// Text is the message text.
	Text string

	// Answer is set on assistant turns.
	Answer *GroundedAnswer

	// Error is set on system turns recording a failed question.
	Error string

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// HasAnswer returns true if the turn carries a grounded answer.
func (t ConversationTurn) HasAnswer() bool {
	return t.Answer != nil
}
