package embedding

import (
	"fmt"

	"smartchat/internal/config"
)

// New builds an Embedding client for the configured provider.
func New(cfg config.ModelConfig) (Embedding, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		return NewGoogleModel(cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
