package domain

import "context"

// Llm abstracts any chat/LLM provider.
type Llm interface {
	// Generate takes a single prompt string and returns the model's reply.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateChat opens a stateful chat seeded with prior history.
	GenerateChat(ctx context.Context, history []ChatMessage) (ChatSession, error)
}

type ChatSession interface {
	SendMessage(ctx context.Context, message ChatMessage) (ChatMessage, error)
	History() ([]ChatMessage, error)
}

// ChatMessage is one history entry in the generic (provider-neutral) vocabulary.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// ValidRole reports whether r is a role the relay accepts on the wire.
func ValidRole(r Role) bool {
	return r == UserRole || r == AssistantRole
}
