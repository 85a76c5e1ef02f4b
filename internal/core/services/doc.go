// Package services implements the driving port interfaces.
//
// CorpusService tracks a session's documents and runs their indexing jobs.
// GroundedQueryEngine answers questions from retrieved passages only.
// MemoService fans the memo questions out and aggregates their risk labels.
// Session and SessionManager tie a corpus to its conversation.
//
// Services depend only on ports; adapters are injected by the caller.
package services
