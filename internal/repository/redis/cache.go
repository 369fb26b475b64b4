package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultSessionTTL = 10 * time.Minute

// SessionCache is a write-through cache in front of a durable
// domain.SessionStore. Redis failures are logged and never fail a turn.
type SessionCache struct {
	client *Client
	store  domain.SessionStore
	ttl    time.Duration
}

// NewSessionCache wraps store with a Redis read cache
func NewSessionCache(client *Client, store domain.SessionStore, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionCache{client: client, store: store, ttl: ttl}
}

func (c *SessionCache) LoadOrInit(ctx context.Context, threadID string) (*domain.Session, error) {
	data, err := c.client.rdb.Get(ctx, c.client.key("session", threadID)).Bytes()
	if err == nil {
		session := domain.NewSession(threadID)
		if err := json.Unmarshal(data, session); err == nil {
			return session, nil
		}
		log.Warn().Str("thread_id", threadID).Msg("discarding undecodable cached session")
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("session cache read failed")
	}

	session, err := c.store.LoadOrInit(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !session.IsNew() {
		c.put(ctx, session)
	}
	return session, nil
}

// Checkpoint writes to the durable store first and refreshes the cache
// on success. A conflict evicts the cached copy so the next load sees
// the winner.
func (c *SessionCache) Checkpoint(ctx context.Context, session *domain.Session) error {
	if err := c.store.Checkpoint(ctx, session); err != nil {
		if errors.Is(err, domain.ErrCheckpointConflict) {
			c.Invalidate(ctx, session.ThreadID)
		}
		return err
	}
	c.put(ctx, session)
	return nil
}

// Invalidate drops the cached copy of a thread
func (c *SessionCache) Invalidate(ctx context.Context, threadID string) {
	if err := c.client.rdb.Del(ctx, c.client.key("session", threadID)).Err(); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("session cache evict failed")
	}
}

func (c *SessionCache) put(ctx context.Context, session *domain.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := c.client.rdb.Set(ctx, c.client.key("session", session.ThreadID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("thread_id", session.ThreadID).Msg("session cache write failed")
	}
}
