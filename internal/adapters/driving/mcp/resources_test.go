package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func TestSessionIDFromURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		leaf     string
		expected string
	}{
		{"transcript", "diligence://sessions/s-123/transcript", "transcript", "s-123"},
		{"status", "diligence://sessions/s-123/status", "status", "s-123"},
		{"other scheme", "file://sessions/s-123/transcript", "transcript", ""},
		{"no leaf", "diligence://sessions/s-123", "transcript", ""},
		{"wrong leaf", "diligence://sessions/s-123/status", "transcript", ""},
		{"nested path", "diligence://sessions/a/b/transcript", "transcript", ""},
		{"empty id", "diligence://sessions//transcript", "transcript", ""},
		{"empty", "", "transcript", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sessionIDFromURI(tt.uri, tt.leaf))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleSessionsResource(t *testing.T) {
	session := newMockSession("s1")
	session.corpus.status = domain.CorpusStatus{
		Readiness: domain.ReadinessReady,
		Documents: []domain.Document{{Name: "inspection.pdf"}},
	}
	server, _ := newTestServer(t, session)

	result, err := server.handleSessionsResource(context.Background(), readRequest("diligence://sessions"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"id": "s1"`)
	assert.Contains(t, result.Contents[0].Text, `"readiness": "ready"`)
	assert.Contains(t, result.Contents[0].Text, `"documents": 1`)
}

func TestServer_handleStatusResource(t *testing.T) {
	session := newMockSession("s1")
	session.corpus.status = domain.CorpusStatus{
		Readiness: domain.ReadinessIndexing,
		Documents: []domain.Document{{Name: "bid.pdf", Status: domain.IndexPending}},
	}
	server, _ := newTestServer(t, session)

	result, err := server.handleStatusResource(context.Background(),
		readRequest("diligence://sessions/s1/status"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "Corpus: indexing")
	assert.Contains(t, result.Contents[0].Text, "bid.pdf")

	_, err = server.handleStatusResource(context.Background(),
		readRequest("diligence://sessions/missing/status"))
	assert.Error(t, err)
}

func TestServer_handleTranscriptResource(t *testing.T) {
	session := newMockSession("s1")
	session.turns = []domain.ConversationTurn{{Seq: 1, Role: domain.RoleUser, Text: "Roof?"}}
	server, _ := newTestServer(t, session)

	result, err := server.handleTranscriptResource(context.Background(),
		readRequest("diligence://sessions/s1/transcript"))

	require.NoError(t, err)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"text": "Roof?"`)

	_, err = server.handleTranscriptResource(context.Background(),
		readRequest("diligence://sessions/s1"))
	assert.Error(t, err)
}
