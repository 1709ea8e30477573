package embedding

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding. If EMBEDDING_MODEL matches any
// of these, a warning is emitted so the operator knows they may have
// misconfigured the pipeline.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"vicuna",
	"falcon",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// ValidateForSearch checks that the embedding configuration can actually
// serve the search service. It returns an error if the configuration is
// clearly broken (e.g. openai backend with no API key), and logs a warning
// when the selected backend cannot embed images; image uploads will fail
// every time with such a backend.
//
// This is a pre-flight check; call it before constructing the encoder so
// operators get a clear error at startup rather than a cryptic failure
// during the first embed call.
func ValidateForSearch(log *slog.Logger) error {
	backend := ResolveBackend()

	switch backend {
	case "clip":
		// Full text+image support; nothing to validate beyond reachability,
		// which the readiness probe covers.

	case "ollama", "openai":
		log.Warn("embedding: selected backend cannot embed images, image uploads will be rejected",
			slog.String("backend", backend),
			slog.String("hint", "set EMBEDDING_PROVIDER=clip for image search support"),
		)
		if backend == "openai" {
			apiKey := os.Getenv("EMBEDDING_API_KEY")
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("embedding: openai backend selected but no API key found; set OPENAI_API_KEY or EMBEDDING_API_KEY")
			}
		}

	default:
		return fmt.Errorf("embedding: unknown backend %q, valid values: clip, ollama, openai", backend)
	}

	// Warn if EMBEDDING_MODEL looks like a chat model.
	model := os.Getenv("EMBEDDING_MODEL")
	if model != "" && looksLikeChatModel(model) {
		log.Warn("embedding: EMBEDDING_MODEL looks like a chat model, not an embedding model; "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. ViT-B-32, nomic-embed-text"),
		)
	}

	return nil
}
