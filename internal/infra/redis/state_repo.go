package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
	"telegram-survey-bot/internal/domain/ports/repository"
	"telegram-survey-bot/internal/infra/security"

	"github.com/go-redis/redis/v8"
)

var _ repository.ConversationStateRepository = (*ConversationStateRepo)(nil)

// ConversationStateRepo keeps per-user conversation state in Redis, sealed
// with the state cipher. The TTL bounds abandoned flows server-side.
type ConversationStateRepo struct {
	client *Client
	cipher *security.StateCipher
	ttl    time.Duration
}

func NewConversationStateRepo(client *Client, cipher *security.StateCipher, ttl time.Duration) *ConversationStateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ConversationStateRepo{client: client, cipher: cipher, ttl: ttl}
}

func (s *ConversationStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("conv_state:%d", tgID)
}

func (s *ConversationStateRepo) Set(ctx context.Context, tgID int64, state *model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	sealed, err := s.cipher.Seal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), sealed, s.ttl)
}

func (s *ConversationStateRepo) Get(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	sealed, err := s.client.Get(ctx, s.stateKey(tgID))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	data, err := s.cipher.Open(sealed)
	if err != nil {
		return nil, err
	}
	var state model.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *ConversationStateRepo) Clear(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
