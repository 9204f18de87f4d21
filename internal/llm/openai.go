package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a Completer backed by the OpenAI chat API. With a custom base
// URL it also serves OpenAI-compatible providers such as Groq.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates a new OpenAI completion client. baseURL may be empty to
// use the default OpenAI endpoint.
func NewOpenAI(apiKey, baseURL string) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}, nil
}

// chatRequest translates a Request into the client's wire struct. The
// client takes temperature as a pointer to distinguish "unset" from zero.
func chatRequest(req Request) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: &req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// Complete performs a single chat completion call.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, chatRequest(req))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
