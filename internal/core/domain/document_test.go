package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		ContentHash([]byte("abc")))
	assert.Equal(t, ContentHash([]byte("same")), ContentHash([]byte("same")))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestIndexStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   IndexStatus
		expected bool
	}{
		{IndexPending, false},
		{IndexIndexed, true},
		{IndexFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsTerminal())
		})
	}
}

func TestDocument_Size(t *testing.T) {
	doc := &Document{Content: []byte("hello")}
	assert.Equal(t, 5, doc.Size())
}

func TestLocator_String(t *testing.T) {
	tests := []struct {
		name     string
		locator  Locator
		expected string
	}{
		{"zero", Locator{}, ""},
		{"page only", Locator{Page: 3}, "p. 3"},
		{"section only", Locator{Section: "Roof"}, "Roof"},
		{"page and section", Locator{Page: 3, Section: "Roof"}, "p. 3, Roof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.locator.String())
			assert.Equal(t, tt.name == "zero", tt.locator.IsZero())
		})
	}
}

func TestPassage_Source(t *testing.T) {
	p := Passage{DocumentName: "inspection.pdf", Locator: Locator{Page: 2}}
	assert.Equal(t, "inspection.pdf (p. 2)", p.Source())

	p.Locator = Locator{}
	assert.Equal(t, "inspection.pdf", p.Source())
}
