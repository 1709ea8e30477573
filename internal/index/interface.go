// Package index defines the vector index abstraction used by the search
// engine: storing location embeddings and answering nearest-neighbour
// queries. Concrete implementations (Qdrant, in-memory) satisfy the Index
// interface so the conversation layer never depends on a specific backend.
package index

import (
	"context"
	"fmt"
)

// Payload is the structured metadata stored alongside each location vector.
type Payload struct {
	// Title is the display name of the location (e.g. "Whitby Abbey").
	Title string

	// Reference is an external link or catalogue reference for the location.
	Reference string

	// Description is a short free-text description used for text embedding.
	Description string

	// LocationType categorises the location (e.g. "castle", "beach", "warehouse").
	LocationType string

	// Features lists notable attributes (e.g. "gothic", "coastal", "ruins").
	Features []string
}

// Candidate is a single nearest-neighbour search result.
type Candidate struct {
	// ID is the unique identifier of the stored location.
	ID string

	// Score is the cosine similarity between the query and this location
	// (0.0 to 1.0 for normalized vectors).
	Score float32

	// Payload holds the location metadata.
	Payload Payload
}

// Entry pairs a location payload with its pre-computed embedding for upsert.
type Entry struct {
	// ID is the unique identifier; reusing an ID overwrites the stored entry.
	ID string

	// Vector is the pre-computed, normalized embedding.
	Vector []float32

	// Payload holds the location metadata.
	Payload Payload
}

// Index is the interface for persisting and searching location embeddings.
// Implementations must be safe to call from multiple goroutines.
type Index interface {
	// NearestNeighbors returns up to limit candidates whose similarity to the
	// query vector meets or exceeds scoreThreshold, ordered by descending
	// similarity. Callers must not assume the results are deduplicated by
	// display title.
	NearestNeighbors(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Candidate, error)

	// Upsert stores or updates a batch of entries with their pre-computed
	// embeddings.
	Upsert(ctx context.Context, entries []Entry) error

	// Close releases any resources held by the index.
	Close() error
}

// UnavailableError indicates the index backend could not be reached or
// failed while serving a request. The conversation layer maps it to a
// user-facing apology without touching session state.
type UnavailableError struct {
	// Op names the failed operation ("search", "upsert", "ensure collection").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("index unavailable during %s", e.Op)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
