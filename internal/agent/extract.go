package agent

import (
	"regexp"
	"strings"

	"github.com/Rrens/onboarding-agent/internal/domain"
)

// namePatterns are tried in order. The trigger phrase is case-insensitive,
// the captured name is one to four capitalised words.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:my name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`),
	regexp.MustCompile(`\b(?i:i am)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`),
	regexp.MustCompile(`\b(?i:this is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`),
}

// ExtractName finds a self-introduced name in text
func ExtractName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	for _, pat := range namePatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimRight(strings.TrimSpace(m[1]), ".!?,;:")
		if name != "" && len(strings.Fields(name)) <= 4 {
			return name, true
		}
	}
	return "", false
}

// CaptureName updates the profile name from the most recent human message
// within the last lookback messages. An existing name is only replaced when
// overwrite is set. Reports whether the profile changed.
func CaptureName(session *domain.Session, lookback int, overwrite bool) bool {
	var recent *domain.Message
	window := Trim(session.Messages, lookback)
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Role == domain.RoleHuman {
			recent = &window[i]
			break
		}
	}
	if recent == nil {
		return false
	}

	name, ok := ExtractName(recent.Content)
	if !ok {
		return false
	}

	current, exists := session.Profile[domain.ProfileName]
	if current == name || (exists && current != "" && !overwrite) {
		return false
	}
	if session.Profile == nil {
		session.Profile = map[string]string{}
	}
	session.Profile[domain.ProfileName] = name
	return true
}
