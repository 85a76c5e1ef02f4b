// Package chunker provides a located text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits each section of a document into bounded chunks.
// Chunks never span sections, so every chunk keeps its section's locator.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document sections into chunks.
// Input chunks are ignored; this processor creates new chunks from the sections.
func (p *Processor) Process(ctx context.Context, doc *domain.ExtractedDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	position := 0

	for _, section := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range p.split(section.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:           uuid.New().String(),
				DocumentID:   doc.DocumentID,
				DocumentName: doc.URI,
				Content:      text,
				Position:     position,
				Locator:      section.Locator,
				Metadata:     make(map[string]any),
			})
			position++
		}
	}

	return chunks, nil
}

// split cuts text into windows of at most chunkSize runes overlapping by
// roughly overlap runes. Window edges snap to whitespace when possible.
func (p *Processor) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= p.chunkSize {
		return []string{text}
	}

	runes := []rune(text)
	step := p.chunkSize - p.overlap
	var out []string

	for start := 0; start < len(runes); {
		end := start + p.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > step {
			end = start + cut
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}

		next := end - p.overlap
		for next > 0 && next < end && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		if next <= start {
			next = start + step
		}
		start = next
	}

	return out
}

// lastSpace returns the index of the last whitespace rune, or -1.
func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
