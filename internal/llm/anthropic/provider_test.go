package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Chat(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Let me find a seat."},
				{"type": "tool_use", "id": "toolu_1", "name": "assign_seating", "input": {"seat_type": "cubicle"}}
			],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := NewProvider("key", "").WithBaseURL(srv.URL)
	resp, err := p.Chat(context.Background(), llm.Request{
		Messages: []domain.Message{
			domain.NewMessage(domain.RoleSystem, "You are an onboarding assistant."),
			domain.NewMessage(domain.RoleHuman, "cubicle please"),
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "You are an onboarding assistant.", got.System)
	assert.Equal(t, 1024, got.MaxTokens)
	require.Len(t, got.Messages, 1)

	assert.Equal(t, "Let me find a seat.", resp.Message.Content)
	assert.Equal(t, 15, resp.TokensUsed)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.Message.ToolCalls[0].ID)
	assert.JSONEq(t, `{"seat_type":"cubicle"}`, resp.Message.ToolCalls[0].Arguments)
}

func TestEncodeMessages(t *testing.T) {
	out := encodeMessages([]domain.Message{
		{Role: domain.RoleAssistant, Content: "Hi, what is your name?"},
		{Role: domain.RoleHuman, Content: "Alice, and a cabin"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "t1", Name: "assign_seating", Arguments: "not json"}}},
		{Role: domain.RoleTool, ToolCallID: "t1", Content: `{"ok":true}`},
		{Role: domain.RoleHuman, Content: "thanks"},
	})

	require.Len(t, out, 5)
	assert.Equal(t, "user", out[0].Role, "leading assistant turn gets a user lead-in")
	assert.Equal(t, "assistant", out[1].Role)
	assert.Equal(t, "user", out[2].Role)
	assert.JSONEq(t, `{}`, string(out[3].Content[0].Input))

	// tool result and the following human text share one user turn
	last := out[4]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Content, 2)
	assert.Equal(t, "tool_result", last.Content[0].Type)
	assert.Equal(t, "t1", last.Content[0].ToolUseID)
	assert.Equal(t, "thanks", last.Content[1].Text)
}
