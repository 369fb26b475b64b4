package mongo

import (
	"testing"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s := domain.NewSession("alice-1")
	s.Version = 4
	s.Summary = "Alice wants a cabin."
	s.Profile[domain.ProfileName] = "Alice"
	s.Append(
		domain.Message{Role: domain.RoleHuman, Content: "I need a cabin", CreatedAt: now},
		domain.Message{Role: domain.RoleAssistant, CreatedAt: now, ToolCalls: []domain.ToolCall{
			{ID: "call_1", Name: "assign_seating", Arguments: `{"seat_type":"cabin"}`},
		}},
		domain.Message{Role: domain.RoleTool, Name: "assign_seating", ToolCallID: "call_1", Content: `{"ok":true}`, CreatedAt: now},
	)

	doc := toDocument(s)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded threadDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	decoded.Version = s.Version

	got := fromDocument(decoded)
	assert.Equal(t, s.ThreadID, got.ThreadID)
	assert.Equal(t, s.Summary, got.Summary)
	assert.Equal(t, s.Profile, got.Profile)
	assert.Equal(t, int64(4), got.Version)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, s.Messages[1].ToolCalls, got.Messages[1].ToolCalls)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
	assert.True(t, now.Equal(got.Messages[0].CreatedAt))
}

func TestFromDocument_NilProfile(t *testing.T) {
	got := fromDocument(threadDocument{ThreadID: "t"})
	assert.NotNil(t, got.Profile)
	assert.Empty(t, got.Messages)
}
