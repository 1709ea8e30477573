package index

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory Index implementation backed by a brute-force
// cosine scan. It is intended for tests and local development where a Qdrant
// instance is not available. Safe for concurrent use.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]Entry)}
}

// Upsert stores or updates entries keyed by ID.
func (m *MemoryIndex) Upsert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

// NearestNeighbors scans all stored entries, scoring each by dot product
// (cosine similarity for normalized vectors), and returns up to limit
// candidates at or above scoreThreshold in descending score order.
func (m *MemoryIndex) NearestNeighbors(_ context.Context, vector []float32, limit int, scoreThreshold float32) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]Candidate, 0, len(m.entries))
	for _, e := range m.entries {
		score := dot(vector, e.Vector)
		if score < scoreThreshold {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:      e.ID,
			Score:   score,
			Payload: e.Payload,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Len returns the number of stored entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error { return nil }

// dot computes the dot product of two vectors. Mismatched lengths score the
// overlapping prefix only.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
