package ai

import "context"

// ChatMessage is one turn of a conversation sent to the model.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// StreamGenerator generates a streamed chat completion. onDelta is called
// with each text fragment as it arrives; returning an error from onDelta
// aborts the stream. All LLM providers (Gemini, OpenAI-compatible)
// implement this interface.
type StreamGenerator interface {
	StreamText(ctx context.Context, systemPrompt string, history []ChatMessage, onDelta func(delta string) error) error
}
