package dedupe

import (
	"context"
	"testing"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func TestProcessor_Process(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", Content: "Acme Inspections LLC  Confidential", Locator: domain.Locator{Page: 1}},
		{ID: "b", Content: "Roof shows granule loss."},
		{ID: "c", Content: "acme inspections llc confidential", Locator: domain.Locator{Page: 2}},
		{ID: "d", Content: "ok"},
		{ID: "e", Content: "ok"},
	}

	out, err := New(5).Process(context.Background(), &domain.ExtractedDocument{}, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "d", "e"}
	if len(out) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, out[i].ID)
		}
		if out[i].Position != i {
			t.Errorf("position %d: chunk renumbered to %d", i, out[i].Position)
		}
	}
}

func TestProcessor_Empty(t *testing.T) {
	out, err := New(0).Process(context.Background(), nil, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("expected no chunks and no error, got %v, %v", out, err)
	}
}

func TestProcessor_Name(t *testing.T) {
	if New(0).Name() != "dedupe" {
		t.Error("unexpected name")
	}
}
