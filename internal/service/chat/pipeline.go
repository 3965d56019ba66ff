// Package chat turns one pending user utterance into exactly one outcome: a
// committed assistant message, or a reported error with rollback.
package chat

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/lukewhite/docuchat/internal/analysis/citation"
	"github.com/lukewhite/docuchat/internal/model/chat"
	"github.com/lukewhite/docuchat/internal/service/agent"
	"github.com/lukewhite/docuchat/internal/service/conversation"
)

// genericFailure is shown when a turn fails without a backend-reported
// message.
const genericFailure = "Failed to get a response from the agent. Please try again."

// Status classifies the result of a Send call.
type Status string

const (
	// StatusCommitted means the exchange was durably written.
	StatusCommitted Status = "committed"
	// StatusFailed means the turn failed and the optimistic user message was
	// rolled back.
	StatusFailed Status = "failed"
	// StatusSkipped means the send was a validation no-op: empty input, no
	// active conversation, or a turn already in flight.
	StatusSkipped Status = "skipped"
)

// Outcome is the single result of a turn. Failures never cross this boundary
// as errors; they are folded into local state and reported here.
type Outcome struct {
	Status    Status
	Assistant chat.Message
	Reason    string
}

// Querier is the remote agent boundary the pipeline depends on.
type Querier interface {
	Query(ctx context.Context, sessionID, message string, history []chat.HistoryEntry) (string, error)
}

// Pipeline mediates one turn: optimistic append, agent call, citation
// extraction, then commit or rollback through the store's own operations.
type Pipeline struct {
	store  *conversation.Service
	agent  Querier
	logger *zap.Logger
}

// NewPipeline wires the pipeline to its store and agent client.
func NewPipeline(store *conversation.Service, querier Querier, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:  store,
		agent:  querier,
		logger: logger,
	}
}

// Send runs one user turn against the active conversation. Whitespace-only
// input, a missing active conversation, and an already-running turn are all
// silent no-ops rather than errors.
func (p *Pipeline) Send(ctx context.Context, text string) Outcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Outcome{Status: StatusSkipped, Reason: "empty message"}
	}

	conv, ok := p.store.Active()
	if !ok {
		return Outcome{Status: StatusSkipped, Reason: "no active conversation"}
	}

	if !p.store.BeginTurn() {
		return Outcome{Status: StatusSkipped, Reason: "a turn is already in flight"}
	}
	defer p.store.EndTurn()

	// A new turn supersedes any lingering banner from the previous one.
	p.store.DismissError()

	// History is captured before the optimistic append so the agent sees
	// only prior turns; the conversation id is captured so a late response
	// still lands in the right stored copy.
	history := p.store.LiveHistory()
	userMsg := chat.NewUserMessage(trimmed)
	p.store.AppendUserTurn(userMsg)

	answer, err := p.agent.Query(ctx, conv.ID, trimmed, history)
	if err != nil {
		reason := genericFailure
		var qe *agent.QueryError
		if errors.As(err, &qe) && qe.Message != "" {
			reason = qe.Message
		}

		p.store.RollbackUserTurn(userMsg.ID)
		p.store.SetError(reason)
		p.logger.Warn("turn failed",
			zap.String("conversationId", conv.ID),
			zap.Error(err))
		return Outcome{Status: StatusFailed, Reason: reason}
	}

	clean, markers := citation.Extract(answer)
	assistantMsg := chat.NewAssistantMessage(clean, markers)
	p.store.CommitExchange(conv.ID, userMsg, assistantMsg)

	p.logger.Info("turn committed",
		zap.String("conversationId", conv.ID),
		zap.Int("sources", len(markers)))
	return Outcome{Status: StatusCommitted, Assistant: assistantMsg}
}
