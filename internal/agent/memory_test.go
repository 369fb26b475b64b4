package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (p *stubProvider) Name() string              { return "stub" }
func (p *stubProvider) AvailableModels() []string { return []string{"stub-1"} }
func (p *stubProvider) DefaultModel() string      { return "stub-1" }
func (p *stubProvider) IsConfigured() bool        { return true }

func (p *stubProvider) Chat(_ context.Context, req llm.Request, _ string) (*llm.Response, error) {
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Message: domain.NewMessage(domain.RoleAssistant, p.reply)}, nil
}

func TestBuildContext(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		msg := BuildContext(nil, "")
		assert.Equal(t, domain.RoleSystem, msg.Role)
		assert.True(t, strings.HasSuffix(msg.Content, "No prior profile or summary."))
	})

	t.Run("profile and summary", func(t *testing.T) {
		msg := BuildContext(map[string]string{"name": "Alice Tran"}, "Asked for a cabin.")
		assert.Contains(t, msg.Content, `Known user profile: {"name":"Alice Tran"}.`)
		assert.Contains(t, msg.Content, "Conversation summary: Asked for a cabin.")
		assert.NotContains(t, msg.Content, "No prior profile")
	})
}

func TestTrim(t *testing.T) {
	msgs := make([]domain.Message, 10)
	for i := range msgs {
		msgs[i] = domain.NewMessage(domain.RoleHuman, string(rune('a'+i)))
	}

	assert.Len(t, Trim(msgs, 6), 6)
	assert.Equal(t, "e", Trim(msgs, 6)[0].Content)
	assert.Len(t, Trim(msgs, 20), 10)
	assert.Empty(t, Trim(msgs, 0))
	assert.Empty(t, Trim(nil, 3))
}

func TestClip(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", Clip("hello", 10))
	})

	t.Run("long text keeps head and tail", func(t *testing.T) {
		text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
		got := Clip(text, 20)
		assert.Equal(t, strings.Repeat("a", 10)+ClipMarker+strings.Repeat("b", 10), got)
		assert.Equal(t, 20+utf8.RuneCountInString(ClipMarker), utf8.RuneCountInString(got))
	})

	t.Run("idempotent", func(t *testing.T) {
		text := strings.Repeat("xyz ", 500)
		once := Clip(text, 100)
		assert.Equal(t, once, Clip(once, 100))
	})

	t.Run("counts runes", func(t *testing.T) {
		text := strings.Repeat("é", 30)
		got := Clip(text, 10)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("é", 5)+ClipMarker+strings.Repeat("é", 5), got)
	})
}

func TestSummarizer_Update(t *testing.T) {
	ctx := context.Background()
	recent := []domain.Message{
		domain.NewMessage(domain.RoleHuman, "I need a cabin."),
		domain.NewMessage(domain.RoleAssistant, "Assigned cabin seat 3."),
	}

	t.Run("uses model output", func(t *testing.T) {
		p := &stubProvider{reply: "  User got cabin 3.  "}
		s := NewSummarizer(p, "", 2000, 0)

		assert.Equal(t, "User got cabin 3.", s.Update(ctx, "Earlier facts.", recent))
		require.Len(t, p.reqs, 1)
		assert.Empty(t, p.reqs[0].Tools)
		assert.Contains(t, p.reqs[0].Messages[1].Content, "Existing summary:\nEarlier facts.")
		assert.Contains(t, p.reqs[0].Messages[1].Content, "HUMAN: I need a cabin.")
	})

	t.Run("falls back on error", func(t *testing.T) {
		s := NewSummarizer(&stubProvider{err: errors.New("boom")}, "", 2000, 0)
		assert.Equal(t, "Earlier facts. I need a cabin. Assigned cabin seat 3.", s.Update(ctx, "Earlier facts.", recent))
	})

	t.Run("falls back on empty output", func(t *testing.T) {
		s := NewSummarizer(&stubProvider{reply: "   "}, "", 2000, 0)
		assert.Equal(t, "I need a cabin. Assigned cabin seat 3.", s.Update(ctx, "", recent))
	})

	t.Run("result is bounded", func(t *testing.T) {
		s := NewSummarizer(&stubProvider{reply: strings.Repeat("word ", 1000)}, "", 100, 0)
		got := s.Update(ctx, "", recent)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 100+utf8.RuneCountInString(ClipMarker))
	})
}
