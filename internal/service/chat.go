package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/rs/zerolog/log"
)

// FallbackReply is shown to the user when a turn fails
const FallbackReply = "Something went wrong, please try again."

// Advancer runs one user turn against a session
type Advancer interface {
	Advance(ctx context.Context, session *domain.Session, userText string) (*domain.Session, error)
}

// TurnResult is the outcome of a successful turn
type TurnResult struct {
	ThreadID string            `json:"thread_id"`
	Reply    string            `json:"reply"`
	Profile  map[string]string `json:"profile"`
	Version  int64             `json:"version"`
}

// ChatService runs conversation turns and persists their sessions
type ChatService struct {
	router Advancer
	store  domain.SessionStore
	locks  *threadLocks
}

// NewChatService creates a new chat service
func NewChatService(router Advancer, store domain.SessionStore) *ChatService {
	return &ChatService{
		router: router,
		store:  store,
		locks:  newThreadLocks(),
	}
}

// Submit applies text as the next user message of threadID. Turns on the
// same thread run one at a time; the session is only checkpointed when the
// whole turn succeeds.
func (s *ChatService) Submit(ctx context.Context, threadID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}

	unlock := s.locks.lock(threadID)
	defer unlock()

	session, err := s.store.LoadOrInit(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	next, err := s.router.Advance(ctx, session, text)
	if err != nil {
		return nil, err
	}

	if err := s.store.Checkpoint(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to checkpoint session: %w", err)
	}

	log.Debug().
		Str("thread_id", threadID).
		Int64("version", next.Version).
		Int("messages", len(next.Messages)).
		Msg("Turn checkpointed")

	return &TurnResult{
		ThreadID: threadID,
		Reply:    next.LastAssistantReply(),
		Profile:  next.Profile,
		Version:  next.Version,
	}, nil
}

// History returns the stored session of threadID, or a fresh one
func (s *ChatService) History(ctx context.Context, threadID string) (*domain.Session, error) {
	session, err := s.store.LoadOrInit(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// threadLocks hands out one mutex per thread id and forgets it once no
// caller holds or waits on it.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*threadLock)}
}

func (t *threadLocks) lock(threadID string) func() {
	t.mu.Lock()
	l, ok := t.locks[threadID]
	if !ok {
		l = &threadLock{}
		t.locks[threadID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, threadID)
		}
		t.mu.Unlock()
	}
}
