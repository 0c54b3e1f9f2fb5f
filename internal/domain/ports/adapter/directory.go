package adapter

import (
	"context"

	"telegram-survey-bot/internal/domain/model"
)

// RegisterRequest carries the fields the directory needs to create a user.
type RegisterRequest struct {
	TgNickname string `json:"tg_nickname"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
}

// UserDirectory is the port to the external user-registry service.
// Lookup is a case-sensitive exact match on handle and returns
// domain.ErrNotFound (not a failure) when absent. Register performs no
// dedup; callers must check LookupByHandle first. SubmitResponse hands a
// completed survey response to the persistence collaborator.
type UserDirectory interface {
	LookupByHandle(ctx context.Context, handle string) (*model.UserRecord, error)
	Register(ctx context.Context, req RegisterRequest) (*model.UserRecord, error)
	SubmitResponse(ctx context.Context, resp *model.SurveyResponse) error
}
