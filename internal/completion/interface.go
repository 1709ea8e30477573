// Package completion defines the chat-completion abstraction used by the
// conversation engine for confirmation detection, query rewriting, and
// follow-up answers. Concrete backends (Ollama, OpenAI, Azure OpenAI,
// Google Gemini, Volcano Ark) are constructed through the eino ChatModel
// components so the engine never depends on a specific vendor SDK.
package completion

import (
	"context"
	"fmt"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn authored by the service.
	RoleAssistant Role = "assistant"
)

// Turn is a single prior exchange passed to the model as context.
type Turn struct {
	// Role is the author of this turn.
	Role Role

	// Content is the turn text.
	Content string
}

// Completer produces a single chat completion. Implementations must be safe
// to call from multiple goroutines.
type Completer interface {
	// Complete generates a reply given a system prompt and the preceding
	// conversation turns. The last turn is the message being answered.
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// Error indicates the completion backend failed or returned an unusable
// response. The conversation layer maps it to a user-facing apology without
// touching session state.
type Error struct {
	// Reason is a short human-readable description.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion: %s: %v", e.Reason, e.Err)
	}
	return "completion: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }
