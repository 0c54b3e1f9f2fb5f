package adapter

import (
	"context"

	"telegram-survey-bot/internal/domain/model"
)

// FormsProvider is the port to the external forms service.
//
// FetchSurvey returns domain.ErrSurveyNotFound, domain.ErrEmptySurvey or
// domain.ErrMalformedResponse for the corresponding provider outcomes.
// SubmitAnswers failures are non-fatal to the conversation; callers log
// them and tell the user delivery may have failed.
type FormsProvider interface {
	FetchSurvey(ctx context.Context, surveyID int64) (*model.Survey, error)
	SubmitAnswers(ctx context.Context, resp *model.SurveyResponse) error
}
