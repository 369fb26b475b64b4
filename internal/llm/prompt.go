package llm

import (
	"strings"

	"github.com/Rrens/onboarding-agent/internal/domain"
)

// SplitSystem joins all system-role messages into one instruction block and
// returns the remaining conversation in order.
func SplitSystem(messages []domain.Message) (string, []domain.Message) {
	var system []string
	rest := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if m.Content != "" {
				system = append(system, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// AnsweredCalls returns the ids of tool calls requested by assistant messages
// within messages. A trimmed history can start with a tool result whose
// request fell outside the window; providers reject such orphans, so callers
// render them as plain text instead.
func AnsweredCalls(messages []domain.Message) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			ids[tc.ID] = true
		}
	}
	return ids
}

// OrphanToolText renders a tool result that has no matching request
func OrphanToolText(m domain.Message) string {
	name := m.Name
	if name == "" {
		name = "tool"
	}
	return "[" + name + " result] " + m.Content
}
