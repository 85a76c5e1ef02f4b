// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentIndex: Indexes uploaded documents and searches passages
//   - TranscriptStore: Session-lifetime conversation persistence
//   - ConfigStore: Application configuration
//   - PromptStore: Grounded-answer and memo prompt templates
//
// # Used by Index Adapters
//
//   - Normaliser, NormaliserRegistry: Extract located text from raw bytes
//   - PostProcessor, PostProcessorPipeline: Split extracted text into chunks
//   - EmbeddingService: Generates vector embeddings for the semantic backend
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, every question fails with ErrLLMUnavailable
//     unless retrieval finds no evidence at all.
//   - MetricsRecorder: Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
