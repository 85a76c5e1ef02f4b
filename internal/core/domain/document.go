package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IndexStatus is the indexing state of a single uploaded document.
type IndexStatus string

// Document indexing states. A document leaves Pending exactly once.
const (
	// IndexPending means the indexing job has not finished yet.
	IndexPending IndexStatus = "pending"

	// IndexIndexed means the document is searchable.
	IndexIndexed IndexStatus = "indexed"

	// IndexFailed means the document could not be indexed.
	IndexFailed IndexStatus = "failed"
)

// IsTerminal returns true once the status can no longer change.
func (s IndexStatus) IsTerminal() bool {
	return s == IndexIndexed || s == IndexFailed
}

// String returns the string representation.
func (s IndexStatus) String() string {
	return string(s)
}

// IndexHandle is the opaque identifier a document index returns for an indexed document.
type IndexHandle string

// Upload is a file handed to the corpus by an upload interface.
type Upload struct {
	// Filename is the original name of the file.
	Filename string

	// Content is the raw file bytes.
	Content []byte

	// DeclaredType is the MIME type supplied by the uploader, if any.
	DeclaredType string
}

// Document is an uploaded file owned by a corpus.
// Copies handed out by the corpus manager are snapshots; the manager's
// own record is never modified after it reaches a terminal status.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the uploaded filename.
	Name string

	// ContentHash is the hex-encoded SHA-256 of Content.
	ContentHash string

	// Content is the raw file bytes.
	Content []byte

	// MIMEType is the declared or detected content type.
	MIMEType string

	// UploadedAt is when the document was registered.
	UploadedAt time.Time

	// Status is the indexing state.
	Status IndexStatus

	// Handle identifies the document in the index once indexed.
	Handle IndexHandle

	// Failure describes why indexing failed. Empty unless Status is IndexFailed.
	Failure string

	// IndexedAt is when the document reached a terminal status.
	IndexedAt time.Time
}

// Size returns the number of content bytes.
func (d *Document) Size() int {
	return len(d.Content)
}

// ContentHash returns the hex-encoded SHA-256 digest of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for granular search results.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// DocumentName is the parent document's filename.
	DocumentName string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Locator points at the page or section the chunk came from.
	Locator Locator

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
