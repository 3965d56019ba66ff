// Package agent implements the HTTP boundary to the remote document-QA
// agent: one POST per user turn, request in, structured answer or error out.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lukewhite/docuchat/internal/model/chat"
)

// FallbackAnswer is used when a response reports success but carries no
// recognizable answer field. A malformed-but-successful response must never
// fail the turn.
const FallbackAnswer = "No response received."

// Config identifies the agent endpoint. AgentID is a fixed deployment
// constant naming which agent to query. A zero Timeout means the call waits
// as long as the transport does.
type Config struct {
	BaseURL string
	AgentID string
	Timeout time.Duration
}

// Client issues one-shot query requests to the agent runtime.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds an agent client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// QueryError carries the backend-reported message for a failed turn, as
// opposed to a transport-level failure.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

type queryRequest struct {
	Message             string              `json:"message"`
	AgentID             string              `json:"agent_id"`
	SessionID           string              `json:"session_id"`
	ConversationHistory []chat.HistoryEntry `json:"conversation_history"`
}

// queryResponse tolerates the three answer shapes the runtime is known to
// produce: a structured object with an "answer" field, a bare string, or a
// raw_response fallback.
type queryResponse struct {
	Success     bool            `json:"success"`
	Response    json.RawMessage `json:"response"`
	RawResponse string          `json:"raw_response"`
	Error       string          `json:"error"`
}

// Query sends one user utterance with its conversation context and resolves
// the answer text. sessionID is the conversation id, letting the backend
// keep its own session-scoped state across turns.
func (c *Client) Query(ctx context.Context, sessionID, message string, history []chat.HistoryEntry) (string, error) {
	if history == nil {
		history = []chat.HistoryEntry{}
	}

	body, err := json.Marshal(queryRequest{
		Message:             message,
		AgentID:             c.cfg.AgentID,
		SessionID:           sessionID,
		ConversationHistory: history,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/agent/query", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read agent response: %w", err)
	}

	var payload queryResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("agent returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("sessionId", sessionID))
		if decodeErr == nil && payload.Error != "" {
			return "", &QueryError{Message: payload.Error}
		}
		return "", fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode agent response: %w", decodeErr)
	}

	if !payload.Success {
		if payload.Error != "" {
			return "", &QueryError{Message: payload.Error}
		}
		return "", &QueryError{Message: "Agent reported an unspecified failure."}
	}

	return resolveAnswer(payload), nil
}

// resolveAnswer collapses the accepted response shapes into one answer
// string, in priority order, falling back to a placeholder rather than
// failing.
func resolveAnswer(payload queryResponse) string {
	if len(payload.Response) > 0 {
		var structured struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(payload.Response, &structured); err == nil && structured.Answer != "" {
			return structured.Answer
		}

		var bare string
		if err := json.Unmarshal(payload.Response, &bare); err == nil && bare != "" {
			return bare
		}
	}

	if payload.RawResponse != "" {
		return payload.RawResponse
	}

	return FallbackAnswer
}
