package embedding

import (
	"fmt"
	"os"
	"strconv"
)

// Default embedding models and dimensions per backend.
const (
	defaultClipModel   = "ViT-B-32"
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultClipDimensions is the output dimension of ViT-B-32.
	defaultClipDimensions = 512
	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ; override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the correct default embedding vector size for the
// given backend name. Callers that need to pre-configure the vector index
// (e.g. Qdrant collection creation) should use this rather than hardcoding a
// value. EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	case "openai":
		return defaultOpenAIDimensions
	default:
		return defaultClipDimensions
	}
}

// ResolveBackend returns the effective embedding backend name.
// EMBEDDING_PROVIDER wins; the default is clip, the only backend that can
// serve image searches.
func ResolveBackend() string {
	return getEnvOrDefault("EMBEDDING_PROVIDER", "clip")
}

// NewFromEnv constructs an Encoder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER: clip (default) | ollama | openai
//  2. EMBEDDING_ENDPOINT: backend base URL (clip default: http://localhost:8001,
//     ollama default: OLLAMA_HOST or http://localhost:11434)
//  3. EMBEDDING_MODEL: overrides the default model for the resolved backend
//  4. EMBEDDING_API_KEY: API key (openai only; falls back to OPENAI_API_KEY)
//  5. EMBEDDING_DIMENSIONS: overrides the default dimensions
func NewFromEnv() (Encoder, error) {
	backend := ResolveBackend()

	switch backend {
	case "clip":
		endpoint := getEnvOrDefault("EMBEDDING_ENDPOINT", "http://localhost:8001")
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultClipModel)
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultClipDimensions)
		return NewClipEncoder(&ClipConfig{
			Endpoint:   endpoint,
			Model:      model,
			Dimensions: dims,
		}), nil

	case "ollama":
		host := os.Getenv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultOllamaDimensions)
		return NewOllamaEncoder(&OllamaConfig{
			Host:       host,
			Model:      model,
			Dimensions: dims,
		}), nil

	case "openai":
		apiKey := os.Getenv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedding: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		baseURL := getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1")
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions)
		return NewOpenAIEncoder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		}), nil

	default:
		return nil, fmt.Errorf("embedding: unknown backend %q, valid values: clip, ollama, openai", backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
