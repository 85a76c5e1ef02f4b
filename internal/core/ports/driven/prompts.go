package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptGroundedAnswer is the system prompt for grounded question answering.
	// It has no format placeholders.
	PromptGroundedAnswer = "grounded_answer"

	// PromptMemoCondition is the memo question for property condition.
	PromptMemoCondition = "memo_condition"

	// PromptMemoFinancial is the memo question for financial risk.
	PromptMemoFinancial = "memo_financial"

	// PromptMemoLegal is the memo question for legal and title risk.
	PromptMemoLegal = "memo_legal"

	// PromptMemoHOA is the memo question for HOA risk.
	PromptMemoHOA = "memo_hoa"
)
