package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driven"
)

// candidateFactor widens the FTS candidate set before term coverage rescoring.
const candidateFactor = 5

// minCandidates is the smallest FTS candidate set fetched per search.
const minCandidates = 50

// documentIndex implements driven.DocumentIndex over the chunks tables.
type documentIndex struct {
	store     *Store
	extractor *extract.Extractor
}

var _ driven.DocumentIndex = (*documentIndex)(nil)

// Name returns the backend name.
func (d *documentIndex) Name() string {
	return string(domain.IndexBackendSQLite)
}

// Index extracts doc and replaces its chunks under corpusID.
// Re-indexing the same document is idempotent.
func (d *documentIndex) Index(ctx context.Context, corpusID string, doc *domain.Document) (domain.IndexHandle, error) {
	chunks, err := d.extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	handle := domain.IndexHandle(doc.ID)

	tx, err := d.store.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE corpus_id = ? AND handle = ?", corpusID, string(handle)); err != nil {
		return "", fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, corpus_id, handle, document_id, document_name, position, page, section, content, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if string(metadataJSON) == jsonNull {
			metadataJSON = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, corpusID, string(handle), c.DocumentID, c.DocumentName,
			c.Position, c.Locator.Page, c.Locator.Section, c.Content, string(metadataJSON),
		); err != nil {
			return "", fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing chunks: %w", err)
	}
	return handle, nil
}

// Search selects FTS5 candidates in the corpus and ranks them by term coverage.
func (d *documentIndex) Search(ctx context.Context, corpus domain.CorpusHandle, query string, topK int) ([]domain.Passage, error) {
	terms := extract.Terms(query)
	if len(terms) == 0 || len(corpus.Handles) == 0 || topK <= 0 {
		return nil, nil
	}

	args := []any{matchExpression(terms), corpus.SessionID}
	placeholders := make([]string, 0, len(corpus.Handles))
	for _, id := range sortedKeys(corpus.Handles) {
		placeholders = append(placeholders, "?")
		args = append(args, string(corpus.Handles[id]))
	}

	limit := topK * candidateFactor
	if limit < minCandidates {
		limit = minCandidates
	}
	args = append(args, limit)

	//nolint:gosec // placeholders are generated, not user input
	q := `
		SELECT c.id, c.document_id, c.document_name, c.position, c.page, c.section, c.content
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ? AND c.corpus_id = ? AND c.handle IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY bm25(chunks_fts), c.document_id, c.position
		LIMIT ?`

	rows, err := d.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentName, &c.Position,
			&c.Locator.Page, &c.Locator.Section, &c.Content); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return extract.Rank(query, chunks, topK), nil
}

// DropCorpus deletes every chunk stored under corpusID.
func (d *documentIndex) DropCorpus(ctx context.Context, corpusID string) error {
	if _, err := d.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE corpus_id = ?", corpusID); err != nil {
		return fmt.Errorf("dropping corpus: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (d *documentIndex) Close() error {
	return nil
}

// matchExpression builds an FTS5 query matching any term by prefix.
func matchExpression(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, `"`+extract.Stem(term)+`"*`)
	}
	return strings.Join(parts, " OR ")
}

func sortedKeys(m map[string]domain.IndexHandle) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
