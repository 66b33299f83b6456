package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// ChatMessage is one immutable entry of the transcript.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType names the render events consumed by the panel.
type EventType string

const (
	EventAppendMessage EventType = "append-message"
	EventThinking      EventType = "thinking"
	EventReset         EventType = "reset"
)

// Event is delivered to the render boundary in emission order.
type Event struct {
	Type      EventType `json:"type"`
	Role      Role      `json:"role,omitempty"`
	Content   string    `json:"content,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Summarizer performs one logical summarize call, retries included.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Moderator redacts or flags disallowed text.
type Moderator interface {
	Clean(text string) string
	IsProfane(text string) bool
}

// Renderer receives render events.
type Renderer interface {
	Emit(event Event)
}

// ErrorMessagePrefix starts every error message appended to the transcript.
const ErrorMessagePrefix = "Sorry, I couldn't process your request: "
