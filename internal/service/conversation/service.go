package conversation

import (
	"context"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/lukewhite/docuchat/internal/model/chat"
)

// titleLimit is the number of leading runes of the first user message kept
// when a conversation is titled after its first successful exchange.
const titleLimit = 30

// State is a point-in-time view of the store, shaped for the UI shell.
type State struct {
	Conversations []chat.Summary `json:"conversations"`
	ActiveID      string         `json:"activeId,omitempty"`
	Messages      []chat.Message `json:"messages"`
	Error         string         `json:"error,omitempty"`
	Busy          bool           `json:"busy"`
}

// Service is the single source of truth for all conversations, the active
// pointer, and the live message view. Every mutation goes through it so the
// live view and the stored per-conversation copies never diverge.
type Service struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	order         []string
	activeID      string
	liveView      []chat.Message
	banner        string
	busy          bool
	logger        *zap.Logger
}

// NewService bootstraps the in-memory store. Conversations live only for the
// lifetime of the process.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		conversations: make(map[string]*chat.Conversation),
		logger:        logger,
	}
}

// Create provisions a new conversation, makes it active, and resets the live
// view and any error banner.
func (s *Service) Create(_ context.Context) chat.Conversation {
	conv := chat.NewConversation()

	s.mu.Lock()
	s.conversations[conv.ID] = &conv
	s.order = append(s.order, conv.ID)
	s.activeID = conv.ID
	s.liveView = nil
	s.banner = ""
	s.mu.Unlock()

	s.logger.Info("conversation created", zap.String("conversationId", conv.ID))
	return conv
}

// Switch makes id the active conversation and swaps the live view to its
// stored messages. An unknown id is tolerated: the id always originates from
// the store's own list, so the view simply becomes empty.
func (s *Service) Switch(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = id
	s.banner = ""
	if conv, ok := s.conversations[id]; ok {
		s.liveView = copyMessages(conv.Messages)
	} else {
		s.liveView = nil
	}
}

// Delete removes a conversation. Deleting the active one clears the active
// pointer and empties the live view. Deleting an absent id is a no-op.
func (s *Service) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return
	}

	delete(s.conversations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if s.activeID == id {
		s.activeID = ""
		s.liveView = nil
		s.banner = ""
	}
}

// Active returns a copy of the active conversation, if any.
func (s *Service) Active() (chat.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[s.activeID]
	if !ok {
		return chat.Conversation{}, false
	}

	copied := *conv
	copied.Messages = copyMessages(conv.Messages)
	return copied, true
}

// LiveHistory reduces the current live view to the {role, content} pairs sent
// to the agent as conversation context.
func (s *Service) LiveHistory() []chat.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]chat.HistoryEntry, 0, len(s.liveView))
	for _, msg := range s.liveView {
		history = append(history, chat.HistoryEntry{Role: msg.Role, Content: msg.Content})
	}
	return history
}

// AppendUserTurn shows the user's message immediately, before the agent call
// resolves. Only the live view is touched; the stored copy is written at
// commit time.
func (s *Service) AppendUserTurn(msg chat.Message) {
	s.mu.Lock()
	s.liveView = append(s.liveView, msg)
	s.mu.Unlock()
}

// CommitExchange durably writes a completed user/assistant exchange into the
// conversation captured at send time. The first committed exchange also
// titles the conversation from the user message. The live view is refreshed
// only when that conversation is still the active one, so a response landing
// after a switch goes to the right stored copy without disturbing the view.
func (s *Service) CommitExchange(conversationID string, userMsg, assistantMsg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		// Conversation was deleted while the request was in flight.
		s.logger.Warn("dropping exchange for deleted conversation",
			zap.String("conversationId", conversationID))
		return
	}

	if len(conv.Messages) == 0 {
		conv.Title = truncateTitle(userMsg.Content)
	}
	conv.Messages = append(conv.Messages, userMsg, assistantMsg)

	if s.activeID == conversationID {
		s.liveView = copyMessages(conv.Messages)
	}
}

// RollbackUserTurn removes an optimistic user message from the live view by
// id, restoring the pre-turn state. The stored copy was never written, so
// nothing else needs undoing.
func (s *Service) RollbackUserTurn(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.liveView {
		if msg.ID == messageID {
			s.liveView = append(s.liveView[:i], s.liveView[i+1:]...)
			return
		}
	}
}

// SetError surfaces a user-visible error banner for the last failed turn.
func (s *Service) SetError(message string) {
	s.mu.Lock()
	s.banner = message
	s.mu.Unlock()
}

// DismissError clears the banner.
func (s *Service) DismissError() {
	s.mu.Lock()
	s.banner = ""
	s.mu.Unlock()
}

// BeginTurn claims the single in-flight slot. It reports false when a turn is
// already running, in which case the caller must not send.
func (s *Service) BeginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// EndTurn releases the in-flight slot. Callers pair it with BeginTurn in a
// defer so the flag can never be left stuck.
func (s *Service) EndTurn() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// List returns conversation summaries in creation order.
func (s *Service) List() []chat.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summariesLocked()
}

// Snapshot captures the full store state for the UI.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Conversations: s.summariesLocked(),
		ActiveID:      s.activeID,
		Messages:      copyMessages(s.liveView),
		Error:         s.banner,
		Busy:          s.busy,
	}
}

func (s *Service) summariesLocked() []chat.Summary {
	summaries := make([]chat.Summary, 0, len(s.order))
	for _, id := range s.order {
		if conv, ok := s.conversations[id]; ok {
			summaries = append(summaries, conv.Summarize())
		}
	}
	return summaries
}

func copyMessages(messages []chat.Message) []chat.Message {
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied
}

func truncateTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleLimit]) + "..."
}
