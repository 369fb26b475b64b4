package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const turnWindow = time.Minute

// TurnLimiter caps the turns a key may submit in any sliding one-minute
// window. Each accepted turn is a member of a sorted set scored by its
// arrival time; rejected turns are not counted.
type TurnLimiter struct {
	client *Client
	limit  int64
}

// NewTurnLimiter allows turnsPerMinute plus burst turns per window
func NewTurnLimiter(client *Client, turnsPerMinute, burst int) *TurnLimiter {
	return &TurnLimiter{client: client, limit: int64(turnsPerMinute + burst)}
}

// Allow records one turn for key and reports whether it fits in the window,
// how many turns remain, and when the oldest counted turn expires.
func (l *TurnLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	k := l.client.key("turns", key)
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	pipe := l.client.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(now.Add(-turnWindow).UnixMilli(), 10))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	count := pipe.ZCard(ctx, k)
	oldest := pipe.ZRangeWithScores(ctx, k, 0, 0)
	pipe.Expire(ctx, k, turnWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to record turn: %w", err)
	}

	reset := now.Add(turnWindow)
	if z := oldest.Val(); len(z) > 0 {
		reset = time.UnixMilli(int64(z[0].Score)).Add(turnWindow)
	}

	n := count.Val()
	if n > l.limit {
		if err := l.client.rdb.ZRem(ctx, k, member).Err(); err != nil {
			return false, 0, reset, fmt.Errorf("failed to discard rejected turn: %w", err)
		}
		return false, 0, reset, nil
	}
	return true, int(l.limit - n), reset, nil
}

// Reset forgets every turn recorded for key
func (l *TurnLimiter) Reset(ctx context.Context, key string) error {
	return l.client.rdb.Del(ctx, l.client.key("turns", key)).Err()
}
