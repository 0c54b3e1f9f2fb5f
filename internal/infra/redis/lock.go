// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.ConversationLocker = (*ConversationLock)(nil)

// ConversationLock serializes message handling for a single user across bot
// instances. Acquire blocks (polling SetNX) until the lock is held; when ctx
// expires first it reports domain.ErrConversationBusy. The TTL guards against
// a crashed holder wedging the conversation.
type ConversationLock struct {
	cli *redis.Client
}

func NewConversationLock(c *Client) *ConversationLock {
	return &ConversationLock{cli: c.cli}
}

func lockKey(tgID int64) string { return fmt.Sprintf("conv_lock:%d", tgID) }

func (l *ConversationLock) Acquire(ctx context.Context, tgID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for {
		ok, err := l.cli.SetNX(ctx, lockKey(tgID), token, ttl).Result()
		if err == nil && ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			// The previous message for this user is still being handled.
			return "", fmt.Errorf("%w: %v", domain.ErrConversationBusy, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *ConversationLock) Release(ctx context.Context, tgID int64, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{lockKey(tgID)}, token).Result()
	return err
}
