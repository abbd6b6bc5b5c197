package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single conversational message owned by its Session.
// Content is mutable only while the message is the in-flight assistant
// placeholder; once committed it is never touched again.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"` // RoleUser | RoleAI | RoleSystem
	Content string `json:"content"`
}

// Session is one conversation thread. Messages are append-only except for
// the streaming placeholder at the tail.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Greeting seeds every new session, mirroring the assistant opening the
// conversation.
const Greeting = "Hello! I'm your AI assistant. What would you like to do today?"

// DefaultTitle is the title of a session before its first user message.
const DefaultTitle = "New chat"

// NewSession creates an empty session seeded with the assistant greeting.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: time.Now(),
		Messages: []Message{
			{ID: uuid.NewString(), Role: RoleAI, Content: Greeting},
		},
	}
}
