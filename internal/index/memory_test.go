package index

import (
	"context"
	"testing"
)

func seedMemoryIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	entries := []Entry{
		{
			ID:     "11111111-1111-1111-1111-111111111111",
			Vector: []float32{1, 0, 0},
			Payload: Payload{
				Title:        "Whitby Abbey",
				LocationType: "ruins",
				Features:     []string{"gothic", "coastal"},
			},
		},
		{
			ID:     "22222222-2222-2222-2222-222222222222",
			Vector: []float32{0.9, 0.436, 0},
			Payload: Payload{
				Title:        "Alnwick Castle",
				LocationType: "castle",
			},
		},
		{
			ID:     "33333333-3333-3333-3333-333333333333",
			Vector: []float32{0, 1, 0},
			Payload: Payload{
				Title:        "Camber Sands",
				LocationType: "beach",
			},
		},
	}
	if err := idx.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return idx
}

func TestMemoryIndexOrdering(t *testing.T) {
	t.Parallel()

	idx := seedMemoryIndex(t)
	got, err := idx.NearestNeighbors(context.Background(), []float32{1, 0, 0}, 10, 0)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].Payload.Title != "Whitby Abbey" {
		t.Errorf("best match = %q, want Whitby Abbey", got[0].Payload.Title)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not in descending score order at index %d", i)
		}
	}
}

func TestMemoryIndexScoreThreshold(t *testing.T) {
	t.Parallel()

	idx := seedMemoryIndex(t)
	got, err := idx.NearestNeighbors(context.Background(), []float32{1, 0, 0}, 10, 0.7)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	for _, c := range got {
		if c.Score < 0.7 {
			t.Errorf("candidate %q below threshold: %v", c.Payload.Title, c.Score)
		}
	}
	// The orthogonal beach vector must be filtered out.
	for _, c := range got {
		if c.Payload.Title == "Camber Sands" {
			t.Error("orthogonal entry survived the threshold")
		}
	}
}

func TestMemoryIndexLimit(t *testing.T) {
	t.Parallel()

	idx := seedMemoryIndex(t)
	got, err := idx.NearestNeighbors(context.Background(), []float32{1, 0, 0}, 1, 0)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
}

func TestMemoryIndexUpsertOverwrites(t *testing.T) {
	t.Parallel()

	idx := seedMemoryIndex(t)
	err := idx.Upsert(context.Background(), []Entry{{
		ID:      "11111111-1111-1111-1111-111111111111",
		Vector:  []float32{0, 0, 1},
		Payload: Payload{Title: "Whitby Abbey (renovated)"},
	}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3 after overwrite", idx.Len())
	}

	got, err := idx.NearestNeighbors(context.Background(), []float32{0, 0, 1}, 1, 0)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	if got[0].Payload.Title != "Whitby Abbey (renovated)" {
		t.Errorf("overwrite not visible: %q", got[0].Payload.Title)
	}
}
