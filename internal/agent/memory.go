package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/rs/zerolog/log"
)

// ClipMarker joins the head and tail of a clipped text
const ClipMarker = " … "

const assistantPreamble = "You are a friendly onboarding assistant for new employees. " +
	"Use the assign_seating_space tool when the user asks for a seat, and report the seat id you receive."

const summarizerPrompt = "You are a summarizer. Write a terse update to an existing " +
	"running summary in <150 words, focusing on facts and decisions. " +
	"Do NOT restate the whole chat. Keep it compact."

// BuildContext renders the compact system block from the known profile and
// running summary.
func BuildContext(profile map[string]string, summary string) domain.Message {
	parts := []string{assistantPreamble}
	if len(profile) > 0 {
		raw, _ := json.Marshal(profile)
		parts = append(parts, fmt.Sprintf("Known user profile: %s.", raw))
	}
	if summary != "" {
		parts = append(parts, "Conversation summary: "+summary)
	}
	if len(parts) == 1 {
		parts = append(parts, "No prior profile or summary.")
	}
	return domain.NewMessage(domain.RoleSystem, strings.Join(parts, " "))
}

// Trim returns the last k messages
func Trim(messages []domain.Message, k int) []domain.Message {
	if k <= 0 {
		return []domain.Message{}
	}
	if len(messages) <= k {
		return messages
	}
	return messages[len(messages)-k:]
}

// Clip bounds text to roughly limit runes by keeping its head and tail.
// Text no longer than limit plus the marker is returned unchanged, which
// makes Clip idempotent.
func Clip(text string, limit int) string {
	runes := []rune(text)
	marker := []rune(ClipMarker)
	if limit <= 0 {
		return ""
	}
	if len(runes) <= limit+len(marker) {
		return text
	}
	headLen := limit / 2
	tailLen := limit - headLen
	return string(runes[:headLen]) + ClipMarker + string(runes[len(runes)-tailLen:])
}

// Summarizer folds recent messages into the running summary
type Summarizer struct {
	provider llm.Provider
	model    string
	limit    int
	timeout  time.Duration
}

// NewSummarizer creates a summarizer that caps summaries at limit runes
func NewSummarizer(provider llm.Provider, model string, limit int, timeout time.Duration) *Summarizer {
	return &Summarizer{
		provider: provider,
		model:    model,
		limit:    limit,
		timeout:  timeout,
	}
}

// Update returns the new summary. It never fails: when the LLM call errors or
// answers with nothing, the recent text is appended to the old summary.
func (s *Summarizer) Update(ctx context.Context, old string, recent []domain.Message) string {
	if len(recent) == 0 {
		return Clip(old, s.limit)
	}

	summary, err := s.summarize(ctx, old, recent)
	if err != nil {
		log.Warn().Err(err).Msg("Summarization failed, using fallback")
		return fallbackSummary(old, recent, s.limit)
	}
	return Clip(summary, s.limit)
}

func (s *Summarizer) summarize(ctx context.Context, old string, recent []domain.Message) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), m.Content))
	}
	user := "Existing summary:\n" + old + "\n\n" +
		"Recent messages to fold in:\n" + strings.Join(lines, "\n---\n") +
		"\n\nReturn only the updated summary."

	resp, err := s.provider.Chat(ctx, llm.Request{
		Messages: []domain.Message{
			domain.NewMessage(domain.RoleSystem, summarizerPrompt),
			domain.NewMessage(domain.RoleHuman, user),
		},
	}, s.model)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return "", llm.ErrEmptyResponse
	}
	return summary, nil
}

func fallbackSummary(old string, recent []domain.Message, limit int) string {
	var texts []string
	for _, m := range recent {
		if m.Content != "" {
			texts = append(texts, m.Content)
		}
	}
	merged := strings.TrimSpace(old + " " + strings.Join(texts, " "))
	return Clip(merged, limit)
}
