package repository

import (
	"context"

	"telegram-survey-bot/internal/domain/model"
)

// ConversationStateRepository is the port for the per-user conversation
// state store. Get returns domain.ErrNotFound for a never-seen user.
type ConversationStateRepository interface {
	Get(ctx context.Context, tgID int64) (*model.ConversationState, error)
	Set(ctx context.Context, tgID int64, state *model.ConversationState) error
	Clear(ctx context.Context, tgID int64) error
}
