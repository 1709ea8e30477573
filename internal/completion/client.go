package completion

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Client implements Completer on top of an eino ChatModel, applying a
// per-request timeout so a stalled backend cannot hold a session lock
// indefinitely.
type Client struct {
	chatModel model.ToolCallingChatModel
	timeout   time.Duration
}

// NewClient wraps an eino ChatModel as a Completer. A non-positive timeout
// defaults to 60 seconds.
func NewClient(cm model.ToolCallingChatModel, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{chatModel: cm, timeout: timeout}
}

// NewFromEnv constructs a Client by reading provider configuration from
// environment variables. MODEL_PROVIDER selects the backend; each provider
// uses its own native credential env vars.
//
// Environment variables:
//
//	MODEL_PROVIDER = ollama | openai | azure | gemini | ark (default: ollama)
//
//	Ollama: OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3)
//	OpenAI: OPENAI_API_KEY, OPENAI_MODEL (default: gpt-4o)
//	Azure:  AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
//	        AZURE_OPENAI_API_VERSION (default: 2024-02-01)
//	Gemini: GOOGLE_API_KEY, GEMINI_MODEL (default: gemini-1.5-pro)
//	Ark:    ARK_API_KEY, ARK_MODEL, ARK_BASE_URL
//
//	Shared: MODEL_MAX_TOKENS (default: 512), MODEL_TEMPERATURE (default: 0.3),
//	        COMPLETION_TIMEOUT seconds (default: 60)
func NewFromEnv(ctx context.Context) (*Client, error) {
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendOllama)))

	cfg := &Config{
		Backend:     backend,
		MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 512),
		Temperature: getEnvFloat32("MODEL_TEMPERATURE", 0.3),
	}

	switch backend {
	case BackendOllama:
		cfg.BaseURL = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		cfg.Model = getEnvOrDefault("OLLAMA_MODEL", "llama3")
	case BackendOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-4o")
	case BackendAzure:
		cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		cfg.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		cfg.AzureDeployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT")
		cfg.AzureAPIVersion = getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01")
	case BackendGemini:
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
		cfg.Model = getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro")
	case BackendArk:
		cfg.APIKey = os.Getenv("ARK_API_KEY")
		cfg.Model = os.Getenv("ARK_MODEL")
		cfg.BaseURL = os.Getenv("ARK_BASE_URL")
	}

	cm, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(getEnvInt("COMPLETION_TIMEOUT", 60)) * time.Second
	return NewClient(cm, timeout), nil
}

// Complete generates a single reply for the given system prompt and turns.
func (c *Client) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]*schema.Message, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	for _, t := range turns {
		switch t.Role {
		case RoleAssistant:
			messages = append(messages, schema.AssistantMessage(t.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(t.Content))
		}
	}

	reply, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", &Error{Reason: "generate failed", Err: err}
	}
	content := strings.TrimSpace(reply.Content)
	if content == "" {
		return "", &Error{Reason: "empty reply from model"}
	}
	return content, nil
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

// getEnvFloat32 returns the float32 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
