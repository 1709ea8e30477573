package completion

import "fmt"

// Validate checks that the config carries everything the selected backend
// needs. Called before any constructor so operators get a clear startup
// error instead of a failure on the first request.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		if c.Model == "" {
			return fmt.Errorf("completion: OLLAMA_MODEL is required for ollama backend")
		}
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("completion: OPENAI_API_KEY is required for openai backend")
		}
		if c.Model == "" {
			return fmt.Errorf("completion: OPENAI_MODEL is required for openai backend")
		}
	case BackendAzure:
		if c.APIKey == "" {
			return fmt.Errorf("completion: AZURE_OPENAI_API_KEY is required for azure backend")
		}
		if c.BaseURL == "" {
			return fmt.Errorf("completion: AZURE_OPENAI_ENDPOINT is required for azure backend")
		}
		if c.AzureDeployment == "" {
			return fmt.Errorf("completion: AZURE_OPENAI_DEPLOYMENT is required for azure backend")
		}
	case BackendGemini:
		if c.APIKey == "" {
			return fmt.Errorf("completion: GOOGLE_API_KEY is required for gemini backend")
		}
		if c.Model == "" {
			return fmt.Errorf("completion: GEMINI_MODEL is required for gemini backend")
		}
	case BackendArk:
		if c.APIKey == "" {
			return fmt.Errorf("completion: ARK_API_KEY is required for ark backend")
		}
		if c.Model == "" {
			return fmt.Errorf("completion: ARK_MODEL is required for ark backend")
		}
	default:
		return fmt.Errorf("completion: unknown backend %q (valid: ollama, openai, azure, gemini, ark)", c.Backend)
	}
	return nil
}
