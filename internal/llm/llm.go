package llm

import (
	"context"
	"errors"
	"fmt"

	"smartchat/internal/config"
)

// ErrCompletion wraps every failure of the external completion service so
// callers can classify it without knowing the provider.
var ErrCompletion = errors.New("completion service failure")

// Request carries one chat completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float32
	MaxTokens    int
}

// Completer is the interface to an external chat completion service. A
// failed call returns an error wrapping ErrCompletion; the caller decides
// whether to retry the whole request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewCompleter builds a Completer for the configured provider.
func NewCompleter(cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL)
	case "gemini":
		return NewGemini(context.Background(), cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
