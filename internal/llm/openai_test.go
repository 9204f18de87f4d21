package llm

import (
	"testing"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

func TestChatRequest_CarriesTuning(t *testing.T) {
	req := Request{
		SystemPrompt: "You are a support assistant.",
		UserPrompt:   "What do you offer?",
		Model:        "llama-3.3-70b-versatile",
		Temperature:  0.7,
		MaxTokens:    500,
	}

	wire := chatRequest(req)

	if wire.Model != req.Model {
		t.Errorf("Model = %q, want %q", wire.Model, req.Model)
	}
	if wire.Temperature == nil {
		t.Fatal("Temperature is nil, want a pointer carrying the configured value")
	}
	if *wire.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", *wire.Temperature)
	}
	if wire.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", wire.MaxTokens)
	}

	if len(wire.Messages) != 2 {
		t.Fatalf("request has %d messages, want 2", len(wire.Messages))
	}
	if wire.Messages[0].Role != openai.ChatMessageRoleSystem || wire.Messages[0].Content != req.SystemPrompt {
		t.Errorf("first message = %+v, want the system prompt", wire.Messages[0])
	}
	if wire.Messages[1].Role != openai.ChatMessageRoleUser || wire.Messages[1].Content != req.UserPrompt {
		t.Errorf("second message = %+v, want the user prompt", wire.Messages[1])
	}
}

func TestChatRequest_TemperaturePointerIsStable(t *testing.T) {
	wire := chatRequest(Request{Temperature: 0.2})
	other := chatRequest(Request{Temperature: 0.9})

	if *wire.Temperature != 0.2 {
		t.Errorf("Temperature = %v after building another request, want 0.2", *wire.Temperature)
	}
	if *other.Temperature != 0.9 {
		t.Errorf("Temperature = %v, want 0.9", *other.Temperature)
	}
}
