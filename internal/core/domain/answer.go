package domain

import "time"

// Confidence records whether an answer is backed by retrieved evidence.
type Confidence string

// Answer confidence states.
const (
	// ConfidenceGrounded means the answer cites retrieved passages.
	ConfidenceGrounded Confidence = "grounded"

	// ConfidenceUngrounded means the corpus held insufficient evidence.
	ConfidenceUngrounded Confidence = "ungrounded"
)

// String returns the string representation.
func (c Confidence) String() string {
	return string(c)
}

// InsufficientEvidenceAnswer is the fixed answer text for ungrounded answers.
const InsufficientEvidenceAnswer = "Insufficient evidence: the uploaded documents do not contain " +
	"information that answers this question."

// Citation is a (document, locator, excerpt) tuple supporting a claim.
type Citation struct {
	// DocumentID identifies the cited document.
	DocumentID string

	// DocumentName is the cited document's filename.
	DocumentName string

	// Locator points at the cited passage.
	Locator Locator

	// Excerpt is the supporting text span.
	Excerpt string
}

// GroundedAnswer is the immutable result of one grounded query.
type GroundedAnswer struct {
	// Question is the question that was asked.
	Question string

	// Answer is the free-text answer.
	Answer string

	// Citations supports the answer, in order of first reference.
	Citations []Citation

	// Confidence records whether any evidence was found.
	Confidence Confidence

	// Model is the generation model, empty for ungrounded answers.
	Model string

	// CorpusVersion is the corpus version the answer was computed against.
	CorpusVersion int

	// AnsweredAt is when the answer was produced.
	AnsweredAt time.Time
}

// IsGrounded returns true if the answer is backed by citations.
func (a *GroundedAnswer) IsGrounded() bool {
	return a != nil && a.Confidence == ConfidenceGrounded
}

// Sources returns the distinct cited filenames in citation order.
func (a *GroundedAnswer) Sources() []string {
	if a == nil {
		return nil
	}
	seen := make(map[string]bool, len(a.Citations))
	var names []string
	for _, c := range a.Citations {
		if seen[c.DocumentName] {
			continue
		}
		seen[c.DocumentName] = true
		names = append(names, c.DocumentName)
	}
	return names
}

// ModelTier selects between a lighter and a heavier generation model.
type ModelTier string

// Available model tiers.
const (
	// TierFast is the cheaper, lower-latency model.
	TierFast ModelTier = "fast"

	// TierThorough is the more capable, slower model.
	TierThorough ModelTier = "thorough"
)

// IsValid returns true if the tier is recognised.
func (t ModelTier) IsValid() bool {
	return t == TierFast || t == TierThorough
}

// String returns the string representation.
func (t ModelTier) String() string {
	return string(t)
}

// AskOptions configures a grounded query.
type AskOptions struct {
	// History is prior conversation context, oldest first.
	History []ConversationTurn

	// Tier selects the generation model. Empty uses the engine default.
	Tier ModelTier
}
