package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/adapters/driven/index/extract"
	"github.com/custodia-labs/diligence/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func newExtractor(t *testing.T) *extract.Extractor {
	t.Helper()
	ext, err := extract.Default(domain.DefaultPipelineConfig())
	require.NoError(t, err)
	return ext
}

func textDoc(id, name, content string) *domain.Document {
	return &domain.Document{ID: id, Name: name, MIMEType: "text/plain", Content: []byte(content)}
}

func TestNewStore_Migrates(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
	assert.Contains(t, store.Path(), dbFile)
}

func TestDocumentIndex_IndexAndSearch(t *testing.T) {
	store := setupTestStore(t)
	idx := store.DocumentIndex(newExtractor(t))
	ctx := context.Background()

	h1, err := idx.Index(ctx, "s1", textDoc("d1", "inspection.txt",
		"Summary of findings\fActive termite infestation found in the crawlspace joists."))
	require.NoError(t, err)
	h2, err := idx.Index(ctx, "s1", textDoc("d2", "hoa.txt", "Reserve study shows reserves 35% funded."))
	require.NoError(t, err)

	corpus := domain.CorpusHandle{
		SessionID: "s1",
		Documents: map[string]string{"d1": "inspection.txt", "d2": "hoa.txt"},
		Handles:   map[string]domain.IndexHandle{"d1": h1, "d2": h2},
	}

	passages, err := idx.Search(ctx, corpus, "termite infestation", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "d1", passages[0].DocumentID)
	assert.Equal(t, "inspection.txt", passages[0].DocumentName)
	assert.Equal(t, 2, passages[0].Locator.Page)
	assert.InDelta(t, 1.0, passages[0].Score, 1e-9)

	passages, err = idx.Search(ctx, corpus, "reserves funded", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "d2", passages[0].DocumentID)
}

func TestDocumentIndex_ReindexIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	idx := store.DocumentIndex(newExtractor(t))
	ctx := context.Background()

	doc := textDoc("d1", "title.txt", "Title commitment lists a mechanic's lien.")
	h, err := idx.Index(ctx, "s1", doc)
	require.NoError(t, err)
	_, err = idx.Index(ctx, "s1", doc)
	require.NoError(t, err)

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE corpus_id = 's1'").Scan(&n))
	assert.Equal(t, 1, n)

	corpus := domain.CorpusHandle{SessionID: "s1", Handles: map[string]domain.IndexHandle{"d1": h}}
	passages, err := idx.Search(ctx, corpus, "lien", 5)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestDocumentIndex_CorpusIsolation(t *testing.T) {
	store := setupTestStore(t)
	idx := store.DocumentIndex(newExtractor(t))
	ctx := context.Background()

	h1, err := idx.Index(ctx, "s1", textDoc("d1", "a.txt", "Foundation crack near garage."))
	require.NoError(t, err)
	h2, err := idx.Index(ctx, "s2", textDoc("d2", "b.txt", "Foundation crack in basement."))
	require.NoError(t, err)

	passages, err := idx.Search(ctx, domain.CorpusHandle{
		SessionID: "s1",
		Handles:   map[string]domain.IndexHandle{"d1": h1, "d2": h2},
	}, "foundation crack", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "d1", passages[0].DocumentID)

	require.NoError(t, idx.DropCorpus(ctx, "s1"))
	passages, err = idx.Search(ctx, domain.CorpusHandle{
		SessionID: "s1",
		Handles:   map[string]domain.IndexHandle{"d1": h1},
	}, "foundation crack", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestDocumentIndex_UnsupportedType(t *testing.T) {
	store := setupTestStore(t)
	idx := store.DocumentIndex(newExtractor(t))

	_, err := idx.Index(context.Background(), "s1", &domain.Document{ID: "d1", Name: "x.png", MIMEType: "image/png", Content: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"roof"* OR "leak"*`, matchExpression([]string{"roof", "leaks"}))
}

func TestTranscriptStore_AppendListDrop(t *testing.T) {
	store := setupTestStore(t)
	ts := store.TranscriptStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	answer := &domain.GroundedAnswer{
		Question:   "Is there a lien?",
		Answer:     "Yes, a mechanic's lien [1].",
		Confidence: domain.ConfidenceGrounded,
		Citations: []domain.Citation{{
			DocumentID:   "d1",
			DocumentName: "title.pdf",
			Locator:      domain.Locator{Page: 4},
			Excerpt:      "mechanic's lien",
		}},
		CorpusVersion: 2,
	}

	require.NoError(t, ts.Append(ctx, "s1", domain.ConversationTurn{Seq: 1, Role: domain.RoleUser, Text: "Is there a lien?", CreatedAt: now}))
	require.NoError(t, ts.Append(ctx, "s1", domain.ConversationTurn{Seq: 2, Role: domain.RoleAssistant, Text: answer.Answer, Answer: answer, CreatedAt: now}))
	require.NoError(t, ts.Append(ctx, "s2", domain.ConversationTurn{Seq: 1, Role: domain.RoleUser, Text: "other", CreatedAt: now}))

	turns, err := ts.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Nil(t, turns[0].Answer)
	require.NotNil(t, turns[1].Answer)
	assert.Equal(t, "title.pdf", turns[1].Answer.Citations[0].DocumentName)
	assert.Equal(t, 4, turns[1].Answer.Citations[0].Locator.Page)
	assert.True(t, turns[1].CreatedAt.Equal(now))

	// Duplicate sequence numbers are rejected.
	assert.Error(t, ts.Append(ctx, "s1", domain.ConversationTurn{Seq: 2, Role: domain.RoleUser, Text: "dup", CreatedAt: now}))

	require.NoError(t, ts.Drop(ctx, "s1"))
	turns, err = ts.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = ts.List(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
