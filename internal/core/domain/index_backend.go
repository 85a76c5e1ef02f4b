package domain

// IndexBackend selects the DocumentIndex implementation.
type IndexBackend string

// Index backends. Memory and SQLite rank by keywords; Chromem and the
// OpenAI vector store rank by embeddings.
const (
	IndexBackendMemory  IndexBackend = "memory"
	IndexBackendSQLite  IndexBackend = "sqlite"
	IndexBackendChromem IndexBackend = "chromem"
	IndexBackendOpenAI  IndexBackend = "openai"
)

var backendDescriptions = map[IndexBackend]string{
	IndexBackendMemory:  "Memory (keyword, in-process)",
	IndexBackendSQLite:  "SQLite (full-text, on disk for the session)",
	IndexBackendChromem: "Chromem (semantic, needs embeddings)",
	IndexBackendOpenAI:  "OpenAI vector store (hosted)",
}

// IsValid reports whether b is a known backend.
func (b IndexBackend) IsValid() bool {
	_, ok := backendDescriptions[b]
	return ok
}

// RequiresEmbedding reports whether b needs an EmbeddingService. The
// hosted store embeds on the server side.
func (b IndexBackend) RequiresEmbedding() bool {
	return b == IndexBackendChromem
}

func (b IndexBackend) String() string {
	return string(b)
}

// Description is the menu label for b.
func (b IndexBackend) Description() string {
	if d, ok := backendDescriptions[b]; ok {
		return d
	}
	return unknownDescription
}

// AllIndexBackends lists backends in menu order.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{IndexBackendMemory, IndexBackendSQLite, IndexBackendChromem, IndexBackendOpenAI}
}

// TranscriptBackend selects where conversation turns are kept.
type TranscriptBackend string

// Transcript backends.
const (
	TranscriptMemory TranscriptBackend = "memory"
	TranscriptSQLite TranscriptBackend = "sqlite"
)

// IsValid reports whether b is a known transcript backend.
func (b TranscriptBackend) IsValid() bool {
	return b == TranscriptMemory || b == TranscriptSQLite
}
