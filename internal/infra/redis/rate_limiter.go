// File: internal/infra/redis/rate_limiter.go
package redis

import (
	"context"
	"fmt"
	"time"
)

// MessageLimiter caps inbound conversation traffic per user and command so a
// runaway client cannot monopolize the update workers. Fixed window: the
// first message for a (user, command) pair opens the window, everything past
// the limit inside it is reported as not allowed, never queued.
type MessageLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewMessageLimiter(client RedisClient, limit int, window time.Duration) *MessageLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MessageLimiter{client: client, limit: limit, window: window}
}

func messageKey(tgID int64, command string) string {
	return fmt.Sprintf("msg_rate:%d:%s", tgID, command)
}

// Allow reports whether the user may send another message of the given
// command kind within the current window.
func (l *MessageLimiter) Allow(ctx context.Context, tgID int64, command string) (bool, error) {
	key := messageKey(tgID, command)
	count, err := l.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}
