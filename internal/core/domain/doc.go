// Package domain defines the core business entities for diligence.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file and its indexing status
//   - Corpus: The session's set of documents and its readiness
//   - Passage, Citation, GroundedAnswer: Retrieval and answer types
//   - ConversationTurn: One entry in a session transcript
//   - MemoSection, InvestmentMemo: The investor memo and its verdict
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
