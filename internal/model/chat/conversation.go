package chat

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is assigned at creation and rewritten exactly once, after the
// conversation's first successful exchange.
const DefaultTitle = "New Conversation"

// Conversation holds the durable copy of one chat's turns. Its ID doubles as
// the session correlator sent to the agent backend.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConversation provisions an empty conversation with the default title.
func NewConversation() Conversation {
	return Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  make([]Message, 0, 16),
		CreatedAt: time.Now().UTC(),
	}
}

// Summary is the sidebar-facing view of a conversation, without its turns.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summarize reduces a conversation to its listing form.
func (c Conversation) Summarize() Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.Title,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
	}
}
