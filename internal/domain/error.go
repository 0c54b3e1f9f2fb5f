package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound = errors.New("entity not found")

	// Forms provider errors
	ErrInvalidCredentials = errors.New("forms provider rejected client credentials")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrEmptySurvey        = errors.New("survey contains no questions")
	ErrMalformedResponse  = errors.New("malformed provider response")

	// User directory errors
	ErrValidation           = errors.New("registration data rejected")
	ErrDirectoryUnavailable = errors.New("user directory unavailable")

	// Conversation errors
	ErrConversationBusy = errors.New("conversation is processing another message")
)
