package conversation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lukewhite/docuchat/internal/model/chat"
	"github.com/lukewhite/docuchat/internal/service/conversation"
)

func TestCreateActivatesAndResetsView(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()

	svc.SetError("stale failure")
	conv := svc.Create(ctx)

	state := svc.Snapshot()
	if state.ActiveID != conv.ID {
		t.Fatalf("expected active %s, got %s", conv.ID, state.ActiveID)
	}
	if len(state.Messages) != 0 {
		t.Fatalf("expected empty live view, got %d messages", len(state.Messages))
	}
	if state.Error != "" {
		t.Fatalf("create must clear the error banner, got %q", state.Error)
	}
	if conv.Title != chat.DefaultTitle {
		t.Fatalf("unexpected default title: %q", conv.Title)
	}
}

func TestCommitExchangeOrderingAndCount(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	user := chat.NewUserMessage("What is in the report?")
	svc.AppendUserTurn(user)
	assistant := chat.NewAssistantMessage("A summary.", nil)
	svc.CommitExchange(conv.ID, user, assistant)

	active, ok := svc.Active()
	if !ok {
		t.Fatal("expected active conversation")
	}
	if len(active.Messages) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(active.Messages))
	}
	if active.Messages[0].Role != chat.RoleUser || active.Messages[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", active.Messages[0].Role, active.Messages[1].Role)
	}

	state := svc.Snapshot()
	if len(state.Messages) != 2 {
		t.Fatalf("live view out of sync, got %d messages", len(state.Messages))
	}
}

func TestTitleSetOnceFromFirstExchange(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	first := chat.NewUserMessage("Tell me about quantum computing and its applications in cryptography")
	svc.AppendUserTurn(first)
	svc.CommitExchange(conv.ID, first, chat.NewAssistantMessage("It is a field.", nil))

	active, _ := svc.Active()
	want := string([]rune(first.Content)[:30]) + "..."
	if active.Title != want {
		t.Fatalf("unexpected title: %q want %q", active.Title, want)
	}
	if !strings.HasSuffix(active.Title, "...") {
		t.Fatalf("truncated title must end with ellipsis: %q", active.Title)
	}

	second := chat.NewUserMessage("And superconductors?")
	svc.AppendUserTurn(second)
	svc.CommitExchange(conv.ID, second, chat.NewAssistantMessage("Cold ones.", nil))

	active, _ = svc.Active()
	if active.Title != want {
		t.Fatalf("title changed after second exchange: %q", active.Title)
	}
}

func TestShortFirstMessageKeptVerbatim(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	user := chat.NewUserMessage("Short question")
	svc.AppendUserTurn(user)
	svc.CommitExchange(conv.ID, user, chat.NewAssistantMessage("Short answer.", nil))

	active, _ := svc.Active()
	if active.Title != "Short question" {
		t.Fatalf("short titles must not be truncated: %q", active.Title)
	}
}

func TestRollbackRestoresPreTurnView(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	seedUser := chat.NewUserMessage("seed")
	svc.AppendUserTurn(seedUser)
	svc.CommitExchange(conv.ID, seedUser, chat.NewAssistantMessage("seeded", nil))

	optimistic := chat.NewUserMessage("doomed turn")
	svc.AppendUserTurn(optimistic)
	svc.RollbackUserTurn(optimistic.ID)
	svc.SetError("agent unavailable")

	state := svc.Snapshot()
	if len(state.Messages) != 2 {
		t.Fatalf("expected view restored to 2 messages, got %d", len(state.Messages))
	}
	if state.Error != "agent unavailable" {
		t.Fatalf("expected error banner, got %q", state.Error)
	}

	active, _ := svc.Active()
	if len(active.Messages) != 2 {
		t.Fatalf("stored copy must be untouched by rollback, got %d", len(active.Messages))
	}
}

func TestSwitchRestoresStoredMessages(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()

	convA := svc.Create(ctx)
	userA := chat.NewUserMessage("first in A")
	svc.AppendUserTurn(userA)
	svc.CommitExchange(convA.ID, userA, chat.NewAssistantMessage("answer in A", nil))

	convB := svc.Create(ctx)
	state := svc.Snapshot()
	if state.ActiveID != convB.ID || len(state.Messages) != 0 {
		t.Fatalf("creating B must switch to an empty view, got active=%s messages=%d",
			state.ActiveID, len(state.Messages))
	}

	svc.Switch(ctx, convA.ID)
	state = svc.Snapshot()
	if state.ActiveID != convA.ID {
		t.Fatalf("expected active %s, got %s", convA.ID, state.ActiveID)
	}
	if len(state.Messages) != 2 || state.Messages[0].Content != "first in A" {
		t.Fatalf("switching back must restore A's messages exactly, got %+v", state.Messages)
	}
}

func TestSwitchClearsErrorBanner(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	svc.SetError("boom")
	svc.Switch(ctx, conv.ID)

	if state := svc.Snapshot(); state.Error != "" {
		t.Fatalf("switch must clear the banner, got %q", state.Error)
	}
}

func TestSwitchToUnknownIDEmptiesView(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	user := chat.NewUserMessage("hello")
	svc.AppendUserTurn(user)
	svc.CommitExchange(conv.ID, user, chat.NewAssistantMessage("hi", nil))

	svc.Switch(ctx, "no-such-id")
	if state := svc.Snapshot(); len(state.Messages) != 0 {
		t.Fatalf("unknown id must yield an empty view, got %d messages", len(state.Messages))
	}
}

func TestDeleteActiveClearsView(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	conv := svc.Create(ctx)

	user := chat.NewUserMessage("to be deleted")
	svc.AppendUserTurn(user)
	svc.CommitExchange(conv.ID, user, chat.NewAssistantMessage("gone soon", nil))

	svc.Delete(ctx, conv.ID)

	state := svc.Snapshot()
	if state.ActiveID != "" {
		t.Fatalf("expected no active conversation, got %s", state.ActiveID)
	}
	if len(state.Messages) != 0 {
		t.Fatalf("expected empty view, got %d messages", len(state.Messages))
	}
	if len(state.Conversations) != 0 {
		t.Fatalf("expected no conversations, got %d", len(state.Conversations))
	}

	// Idempotent: deleting again must not panic or change anything.
	svc.Delete(ctx, conv.ID)
}

func TestDeleteInactiveKeepsView(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()
	convA := svc.Create(ctx)
	convB := svc.Create(ctx)

	svc.Delete(ctx, convA.ID)

	state := svc.Snapshot()
	if state.ActiveID != convB.ID {
		t.Fatalf("deleting an inactive conversation must not change the active one, got %s", state.ActiveID)
	}
	if len(state.Conversations) != 1 {
		t.Fatalf("expected one conversation left, got %d", len(state.Conversations))
	}
}

func TestCommitIntoSwitchedAwayConversation(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()

	convA := svc.Create(ctx)
	user := chat.NewUserMessage("sent from A")
	svc.AppendUserTurn(user)

	// The user switches away while the request is in flight.
	convB := svc.Create(ctx)
	svc.CommitExchange(convA.ID, user, chat.NewAssistantMessage("late answer", nil))

	state := svc.Snapshot()
	if state.ActiveID != convB.ID || len(state.Messages) != 0 {
		t.Fatalf("late commit must not touch B's live view, got active=%s messages=%d",
			state.ActiveID, len(state.Messages))
	}

	svc.Switch(ctx, convA.ID)
	state = svc.Snapshot()
	if len(state.Messages) != 2 {
		t.Fatalf("late commit must land in A's stored copy, got %d messages", len(state.Messages))
	}
}

func TestCommitIntoDeletedConversationDropped(t *testing.T) {
	svc := conversation.NewService(nil)
	ctx := context.Background()

	conv := svc.Create(ctx)
	user := chat.NewUserMessage("orphaned")
	svc.AppendUserTurn(user)
	svc.Delete(ctx, conv.ID)

	svc.CommitExchange(conv.ID, user, chat.NewAssistantMessage("too late", nil))

	if state := svc.Snapshot(); len(state.Conversations) != 0 {
		t.Fatalf("commit into a deleted conversation must be dropped, got %d", len(state.Conversations))
	}
}

func TestBeginTurnRejectsOverlap(t *testing.T) {
	svc := conversation.NewService(nil)

	if !svc.BeginTurn() {
		t.Fatal("first BeginTurn must succeed")
	}
	if svc.BeginTurn() {
		t.Fatal("overlapping BeginTurn must be rejected")
	}
	svc.EndTurn()
	if !svc.BeginTurn() {
		t.Fatal("BeginTurn must succeed again after EndTurn")
	}
}
