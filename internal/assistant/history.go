// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voyantic/farewatch-tui/internal/model"
)

// =============================================================================
// HISTORY CLIENT
// =============================================================================

// HistoryClient fetches prior turns of a thread so the chat session can
// switch to an existing conversation. It is the "separate history-fetch
// collaborator" behind SwitchSession.
type HistoryClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHistoryClient creates a history client for the given endpoint URL.
// Pass the chat client's HTTP client to share cookies.
func NewHistoryClient(endpoint string, httpClient *http.Client) *HistoryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HistoryClient{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// historyTurn mirrors the wire form of a persisted turn. Tool calls arrive
// in the same encoded form the stream uses.
type historyTurn struct {
	ID         string                `json:"id"`
	Role       string                `json:"role"`
	Content    string                `json:"content"`
	CreatedAt  time.Time             `json:"created_at"`
	ToolCalls  []model.WireToolCall  `json:"tool_calls,omitempty"`
	ToolResult *model.WireToolResult `json:"tool_result,omitempty"`
}

type historyResponse struct {
	Turns []historyTurn `json:"turns"`
}

// Fetch retrieves the transcript of the given thread.
func (h *HistoryClient) Fetch(ctx context.Context, threadID string) ([]*model.Turn, error) {
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad history endpoint: %w", err)
	}
	q := u.Query()
	q.Set("thread_id", threadID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorBody(resp)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	turns := make([]*model.Turn, 0, len(body.Turns))
	for _, wire := range body.Turns {
		turn := &model.Turn{
			ID:        wire.ID,
			Role:      model.Role(wire.Role),
			Content:   wire.Content,
			CreatedAt: wire.CreatedAt,
		}
		for _, call := range wire.ToolCalls {
			materialized, err := call.Materialize()
			if err != nil {
				continue // tolerate bad persisted arguments
			}
			turn.AddToolCall(materialized)
		}
		if wire.ToolResult != nil {
			result := wire.ToolResult.Materialize()
			turn.ToolResult = &result
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
