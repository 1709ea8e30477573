package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaEncoder implements Encoder using the Ollama /api/embed endpoint.
// It is text-only: Ollama embedding models have no image tower, so
// EmbedImage always fails with an *EncodingError. No API key is required;
// Ollama runs locally. It is safe for concurrent use.
type OllamaEncoder struct {
	// host is the Ollama server base URL (e.g. "http://localhost:11434").
	host string
	// model is the embedding model name (e.g. "nomic-embed-text").
	model string
	// dimensions is the vector size the model produces.
	dimensions int
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEncoder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string
	// Dimensions is the vector size (nomic-embed-text produces 768).
	Dimensions int
}

// NewOllamaEncoder constructs an OllamaEncoder from the given config.
func NewOllamaEncoder(cfg *OllamaConfig) *OllamaEncoder {
	return &OllamaEncoder{
		host:       cfg.Host,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimensions returns the vector size this encoder produces.
func (e *OllamaEncoder) Dimensions() int { return e.dimensions }

// ollamaEmbedRequest is the JSON body sent to the Ollama /api/embed endpoint.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the JSON body returned from the Ollama /api/embed endpoint.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// EmbedText converts a single text into its embedding.
func (e *OllamaEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EncodingError{Reason: "empty text"}
	}

	body := ollamaEmbedRequest{
		Model: e.model,
		Input: []string{text},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama encoder: marshal request: %w", err)
	}

	url := e.host + "/api/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama encoder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama encoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama encoder: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return nil, fmt.Errorf("ollama encoder: %s", msg)
	}

	if len(result.Embeddings) != 1 {
		return nil, fmt.Errorf("ollama encoder: expected 1 embedding, got %d", len(result.Embeddings))
	}

	return Normalize(result.Embeddings[0]), nil
}

// EmbedImage always fails: Ollama embedding models are text-only.
func (e *OllamaEncoder) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	return nil, &EncodingError{Reason: "ollama backend cannot embed images; use the clip backend"}
}
