// Package index builds the configured DocumentIndex backend and wraps it
// with per-call timeouts, rate limiting and optional retries.
//
// Backends live in subpackages:
//
//   - memory: in-process keyword index (default)
//   - chromem: in-process semantic index over an EmbeddingService
//   - openai: hosted OpenAI vector store
//
// The SQLite FTS5 backend is provided by the storage/sqlite Store so that it
// shares one database with the transcript store.
package index
