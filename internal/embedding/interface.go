// Package embedding provides implementations of the Encoder interface for
// converting text and images into dense vector embeddings. Each implementation
// talks to a different backend (CLIP sidecar, Ollama, OpenAI) via plain HTTP;
// no additional SDK dependencies are required.
//
// All encoders return L2-normalized vectors of a fixed dimensionality so that
// cosine similarity in the vector index behaves as expected.
package embedding

import (
	"context"
	"fmt"
)

// Encoder converts user input into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Encoder interface {
	// EmbedText converts a single text into its embedding.
	// Returns an *EncodingError for empty or invalid input.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedImage converts raw image bytes into an embedding.
	// Returns an *EncodingError for undecodable image data or when the
	// backend has no image model.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// Dimensions returns the vector size this encoder produces.
	Dimensions() int
}

// EncodingError reports bad or unsupported input to an encoder: empty text,
// undecodable image bytes, or an image sent to a text-only backend.
type EncodingError struct {
	// Reason describes what was wrong with the input.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("embedding: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *EncodingError) Unwrap() error { return e.Err }
