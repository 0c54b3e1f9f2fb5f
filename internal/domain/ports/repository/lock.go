package repository

import (
	"context"
	"time"
)

// ConversationLocker serializes message handling per user: message N's state
// transition is fully stored before message N+1 is read. Acquire blocks
// until the lock is held or ctx is done; Release must be called with the
// token Acquire returned.
type ConversationLocker interface {
	Acquire(ctx context.Context, tgID int64, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, tgID int64, token string) error
}
