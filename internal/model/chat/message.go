package chat

import (
	"time"

	"github.com/google/uuid"
)

// Roles a message can carry within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Timestamp is formatted once at
// creation and never recomputed. Sources is nil when the answer carried no
// citation markers; it is never an empty slice.
type Message struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Sources   []string `json:"sources,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// NewUserMessage builds a user turn.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().Format(time.Kitchen),
	}
}

// NewAssistantMessage builds an assistant turn. Content is expected to
// already have citation markers stripped.
func NewAssistantMessage(content string, sources []string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now().Format(time.Kitchen),
	}
	if len(sources) > 0 {
		msg.Sources = sources
	}
	return msg
}

// HistoryEntry is the reduced {role, content} form sent to the agent as
// conversation context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
