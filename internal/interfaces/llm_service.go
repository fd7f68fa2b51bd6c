package interfaces

import (
	"context"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ChatOptions tunes a single completion request
type ChatOptions struct {
	// JSONResponse asks the provider to emit a bare JSON document when it supports it
	JSONResponse bool
}

// LLMService defines chat completion against a hosted generative model.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context including
	// system prompts and user messages.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// Provider returns the provider name ("gemini" or "claude")
	Provider() string

	// Close releases provider resources
	Close() error
}
