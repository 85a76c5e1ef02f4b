package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeReadiness(t *testing.T) {
	doc := func(s IndexStatus) Document { return Document{Status: s} }

	tests := []struct {
		name     string
		docs     []Document
		expected Readiness
	}{
		{"no documents", nil, ReadinessEmpty},
		{"all indexed", []Document{doc(IndexIndexed), doc(IndexIndexed)}, ReadinessReady},
		{"one pending", []Document{doc(IndexIndexed), doc(IndexPending)}, ReadinessIndexing},
		{"one failed", []Document{doc(IndexIndexed), doc(IndexFailed)}, ReadinessDegraded},
		{"failed beats pending", []Document{doc(IndexPending), doc(IndexFailed)}, ReadinessDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeReadiness(tt.docs))
		})
	}
}

func TestCorpusStatus_Counts(t *testing.T) {
	status := CorpusStatus{Documents: []Document{
		{Status: IndexIndexed},
		{Status: IndexIndexed},
		{Status: IndexFailed},
	}}

	counts := status.Counts()
	assert.Equal(t, 2, counts[IndexIndexed])
	assert.Equal(t, 1, counts[IndexFailed])
	assert.Equal(t, 0, counts[IndexPending])
}

func TestCorpusHandle(t *testing.T) {
	h := CorpusHandle{
		Documents: map[string]string{"d1": "inspection.pdf"},
		Handles:   map[string]IndexHandle{"d1": "file-123"},
	}

	assert.True(t, h.Contains("d1"))
	assert.False(t, h.Contains("d2"))

	id, ok := h.DocumentForHandle("file-123")
	assert.True(t, ok)
	assert.Equal(t, "d1", id)

	_, ok = h.DocumentForHandle("file-999")
	assert.False(t, ok)
}

func TestReadiness_Description(t *testing.T) {
	assert.Equal(t, "Ready", ReadinessReady.Description())
	assert.Equal(t, "Unknown", Readiness("bogus").Description())
}
