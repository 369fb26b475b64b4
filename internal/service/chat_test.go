package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func replied(s *domain.Session, text, reply string) *domain.Session {
	next := s.Clone()
	next.Append(domain.NewMessage(domain.RoleHuman, text), domain.NewMessage(domain.RoleAssistant, reply))
	return next
}

func TestChatService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := new(MockSessionStore)
		router := new(MockAdvancer)
		svc := NewChatService(router, store)

		session := domain.NewSession("alice-1")
		next := replied(session, "My name is Alice.", "Nice to meet you, Alice!")
		next.Profile[domain.ProfileName] = "Alice"

		store.On("LoadOrInit", ctx, "alice-1").Return(session, nil)
		router.On("Advance", ctx, session, "My name is Alice.").Return(next, nil)
		store.On("Checkpoint", ctx, next).Return(nil)

		result, err := svc.Submit(ctx, "alice-1", "  My name is Alice.  ")
		require.NoError(t, err)
		assert.Equal(t, "Nice to meet you, Alice!", result.Reply)
		assert.Equal(t, "Alice", result.Profile[domain.ProfileName])
		assert.Equal(t, int64(1), result.Version)

		store.AssertExpectations(t)
		router.AssertExpectations(t)
	})

	t.Run("blank input", func(t *testing.T) {
		store := new(MockSessionStore)
		svc := NewChatService(new(MockAdvancer), store)

		_, err := svc.Submit(ctx, "alice-1", "   \n")
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
		store.AssertNotCalled(t, "LoadOrInit", mock.Anything, mock.Anything)
	})

	t.Run("failed turn is not checkpointed", func(t *testing.T) {
		store := new(MockSessionStore)
		router := new(MockAdvancer)
		svc := NewChatService(router, store)

		session := domain.NewSession("bob-2")
		turnErr := errors.New("llm down")
		store.On("LoadOrInit", ctx, "bob-2").Return(session, nil)
		router.On("Advance", ctx, session, "hello").Return(nil, turnErr)

		_, err := svc.Submit(ctx, "bob-2", "hello")
		assert.ErrorIs(t, err, turnErr)
		store.AssertNotCalled(t, "Checkpoint", mock.Anything, mock.Anything)
	})

	t.Run("checkpoint conflict", func(t *testing.T) {
		store := new(MockSessionStore)
		router := new(MockAdvancer)
		svc := NewChatService(router, store)

		session := domain.NewSession("bob-2")
		next := replied(session, "hello", "hi")
		store.On("LoadOrInit", ctx, "bob-2").Return(session, nil)
		router.On("Advance", ctx, session, "hello").Return(next, nil)
		store.On("Checkpoint", ctx, next).Return(domain.ErrCheckpointConflict)

		_, err := svc.Submit(ctx, "bob-2", "hello")
		assert.ErrorIs(t, err, domain.ErrCheckpointConflict)
	})
}

type slowAdvancer struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (a *slowAdvancer) Advance(ctx context.Context, session *domain.Session, userText string) (*domain.Session, error) {
	n := a.active.Add(1)
	defer a.active.Add(-1)
	for {
		seen := a.maxSeen.Load()
		if n <= seen || a.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return replied(session, userText, "ok"), nil
}

func TestChatService_SerialisesTurnsPerThread(t *testing.T) {
	store := new(MockSessionStore)
	store.On("LoadOrInit", mock.Anything, "same").Return(domain.NewSession("same"), nil)
	store.On("Checkpoint", mock.Anything, mock.Anything).Return(nil)

	router := &slowAdvancer{}
	svc := NewChatService(router, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), "same", "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), router.maxSeen.Load())
	assert.Empty(t, svc.locks.locks)
}

func TestChatService_History(t *testing.T) {
	ctx := context.Background()
	store := new(MockSessionStore)
	svc := NewChatService(new(MockAdvancer), store)

	session := replied(domain.NewSession("alice-1"), "hi", "hello")
	store.On("LoadOrInit", ctx, "alice-1").Return(session, nil)

	got, err := svc.History(ctx, "alice-1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
}
