package domain

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"
)

// ProfileName is the profile key holding the user's captured name
const ProfileName = "name"

var (
	// ErrCheckpointConflict is returned when a session was checkpointed by
	// someone else since it was loaded.
	ErrCheckpointConflict = errors.New("checkpoint conflict")

	// ErrEmptyInput is returned when a turn is submitted without text
	ErrEmptyInput = errors.New("empty input")
)

// Session is the durable state of one conversation thread
type Session struct {
	ThreadID  string            `json:"thread_id"`
	Messages  []Message         `json:"messages"`
	Profile   map[string]string `json:"profile"`
	Summary   string            `json:"summary"`
	Version   int64             `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns an empty session for threadID
func NewSession(threadID string) *Session {
	return &Session{
		ThreadID: threadID,
		Messages: []Message{},
		Profile:  map[string]string{},
	}
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		m.ToolCalls = slices.Clone(m.ToolCalls)
		c.Messages[i] = m
	}
	c.Profile = maps.Clone(s.Profile)
	if c.Profile == nil {
		c.Profile = map[string]string{}
	}
	return &c
}

// IsNew reports whether the session has never been checkpointed
func (s *Session) IsNew() bool {
	return s.Version == 0 && len(s.Messages) == 0
}

// Append adds messages to the end of the transcript
func (s *Session) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// LastAssistantReply returns the content of the most recent assistant message
// that is not a tool request.
func (s *Session) LastAssistantReply() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == RoleAssistant && !m.HasToolCalls() {
			return m.Content
		}
	}
	return ""
}

// SessionStore persists sessions keyed by thread id
type SessionStore interface {
	// LoadOrInit returns the stored session or a fresh one when none exists
	LoadOrInit(ctx context.Context, threadID string) (*Session, error)

	// Checkpoint atomically replaces the stored session. On success the
	// session's Version is incremented. Returns ErrCheckpointConflict when the
	// stored version no longer matches.
	Checkpoint(ctx context.Context, session *Session) error
}
