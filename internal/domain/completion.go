package domain

import "context"

// Message roles for completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single call to the completion provider.
// An empty Model or zero Temperature falls back to provider defaults.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	Temperature float32
}

// Completer is the shared text completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
