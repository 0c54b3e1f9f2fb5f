package model

// Survey is a provider form flattened into an ordered list of free-text
// questions. Immutable once fetched.
type Survey struct {
	ExternalID  int64
	Title       string
	Description string
	Questions   []string
}

// SurveyResponse is created exactly once, when the last answer arrives.
// Ownership passes to the persistence collaborator on submission.
type SurveyResponse struct {
	SurveyID         int64
	UserID           string
	TelegramUserID   int64
	TelegramUsername string
	Answers          []string
}
