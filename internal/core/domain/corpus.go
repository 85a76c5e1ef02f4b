package domain

// Readiness is the corpus-level state gating whether queries are permitted.
type Readiness string

// Corpus readiness states.
const (
	// ReadinessEmpty means no documents have been uploaded.
	ReadinessEmpty Readiness = "empty"

	// ReadinessIndexing means at least one document is still pending.
	ReadinessIndexing Readiness = "indexing"

	// ReadinessDegraded means at least one document failed to index.
	ReadinessDegraded Readiness = "degraded"

	// ReadinessReady means every document is indexed.
	ReadinessReady Readiness = "ready"
)

// String returns the string representation.
func (r Readiness) String() string {
	return string(r)
}

// Description returns a human-readable description of the readiness state.
func (r Readiness) Description() string {
	switch r {
	case ReadinessEmpty:
		return "No documents uploaded"
	case ReadinessIndexing:
		return "Indexing documents"
	case ReadinessDegraded:
		return "One or more documents failed to index"
	case ReadinessReady:
		return "Ready"
	default:
		return unknownDescription
	}
}

// ComputeReadiness derives corpus readiness from its documents.
// Failed documents take precedence over pending ones.
func ComputeReadiness(docs []Document) Readiness {
	if len(docs) == 0 {
		return ReadinessEmpty
	}
	pending := false
	for i := range docs {
		switch docs[i].Status {
		case IndexFailed:
			return ReadinessDegraded
		case IndexPending:
			pending = true
		}
	}
	if pending {
		return ReadinessIndexing
	}
	return ReadinessReady
}

// CorpusStatus is a consistent snapshot of a session's corpus.
type CorpusStatus struct {
	// SessionID identifies the owning session.
	SessionID string

	// Documents lists every document in upload order.
	Documents []Document

	// Readiness is derived from Documents.
	Readiness Readiness

	// Version increases each time a document is added.
	Version int
}

// Counts returns the number of documents in each status.
func (s CorpusStatus) Counts() map[IndexStatus]int {
	counts := map[IndexStatus]int{
		IndexPending: 0,
		IndexIndexed: 0,
		IndexFailed:  0,
	}
	for i := range s.Documents {
		counts[s.Documents[i].Status]++
	}
	return counts
}

// CorpusHandle is the query-time view of a ready corpus.
// It is only issued by the corpus manager when every document is indexed.
type CorpusHandle struct {
	// SessionID identifies the corpus in the document index.
	SessionID string

	// Version is the corpus version the handle was issued at.
	Version int

	// Documents maps document ID to filename.
	Documents map[string]string

	// Handles maps document ID to its index handle.
	Handles map[string]IndexHandle
}

// Contains returns true if the document belongs to the corpus.
func (h CorpusHandle) Contains(documentID string) bool {
	_, ok := h.Documents[documentID]
	return ok
}

// DocumentForHandle resolves an index handle back to a document ID.
func (h CorpusHandle) DocumentForHandle(handle IndexHandle) (string, bool) {
	for id, hd := range h.Handles {
		if hd == handle {
			return id, true
		}
	}
	return "", false
}
