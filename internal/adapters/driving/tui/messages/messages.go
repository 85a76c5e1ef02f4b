// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

// QuestionSubmitted is sent when the analyst submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the turn recorded for a question.
type AnswerReceived struct {
	Turn  domain.ConversationTurn
	Stale bool
	Err   error
}

// MemoRequested is a command to generate the investment memo.
type MemoRequested struct{}

// MemoGenerated carries the generated memo.
type MemoGenerated struct {
	Memo *domain.InvestmentMemo
	Err  error
}

// UploadStarted is sent when a document has been registered for indexing.
type UploadStarted struct {
	Registration driving.Registration
	Watched      bool
}

// UploadFinished is sent when a document's indexing job ends.
type UploadFinished struct {
	Document domain.Document
	Err      error
}

// StatusUpdated carries a fresh corpus status.
type StatusUpdated struct {
	Status domain.CorpusStatus
}

// TierChanged signals the question tier was changed.
type TierChanged struct {
	Tier domain.ModelTier
	Err  error
}

// WatchClosed signals the watched folder stopped delivering events.
type WatchClosed struct{}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
