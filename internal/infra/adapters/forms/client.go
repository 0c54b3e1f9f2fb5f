// File: internal/infra/adapters/forms/client.go
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
	"telegram-survey-bot/internal/domain/ports/adapter"
	"telegram-survey-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.FormsProvider = (*Client)(nil)

// subQuestionPrefix marks flattened sub-questions in the linear question list.
const subQuestionPrefix = "  - "

const submissionUserAgent = "telegram-survey-bot/1.0"

// Client talks to the forms provider. The two endpoint families use
// different authorization schemes: survey fetch expects "OAuth <token>",
// response submission expects "Bearer <token>". The provider does not
// accept them interchangeably.
type Client struct {
	baseURL string
	tokens  *TokenCache
	client  *http.Client
	log     *zerolog.Logger
	now     func() time.Time
}

func NewClient(baseURL string, tokens *TokenCache, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
		now:     time.Now,
	}
}

// providerSurvey is the provider's wire shape for a form.
type providerSurvey struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Questions   []struct {
		Text         string `json:"text"`
		Subquestions []struct {
			Text string `json:"text"`
		} `json:"subquestions"`
	} `json:"questions"`
}

// FetchSurvey loads a form and flattens its question tree into one ordered
// list: each top-level question's text, then its sub-questions' text with
// the dash prefix, in source order.
func (c *Client) FetchSurvey(ctx context.Context, surveyID int64) (*model.Survey, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/forms/%d", c.baseURL, surveyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token)
	req.Header.Set("Content-Type", "application/json")

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("fetch_survey", "transport_error", time.Since(start))
		return nil, fmt.Errorf("fetch survey %d: %w", surveyID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.ObserveProviderCall("fetch_survey", "not_found", time.Since(start))
		return nil, domain.ErrSurveyNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.ObserveProviderCall("fetch_survey", "http_error", time.Since(start))
		return nil, fmt.Errorf("fetch survey %d: http %d", surveyID, resp.StatusCode)
	}

	var raw providerSurvey
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.ObserveProviderCall("fetch_survey", "malformed", time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	questions := flattenQuestions(raw)
	if len(questions) == 0 {
		metrics.ObserveProviderCall("fetch_survey", "empty", time.Since(start))
		return nil, domain.ErrEmptySurvey
	}

	metrics.ObserveProviderCall("fetch_survey", "ok", time.Since(start))
	return &model.Survey{
		ExternalID:  surveyID,
		Title:       raw.Title,
		Description: raw.Description,
		Questions:   questions,
	}, nil
}

func flattenQuestions(raw providerSurvey) []string {
	var questions []string
	for _, q := range raw.Questions {
		if q.Text != "" {
			questions = append(questions, q.Text)
		}
		for _, sub := range q.Subquestions {
			if sub.Text != "" {
				questions = append(questions, subQuestionPrefix+sub.Text)
			}
		}
	}
	return questions
}

type submissionPayload struct {
	SurveyID    int64              `json:"survey_id"`
	UserID      string             `json:"user_id,omitempty"`
	Username    string             `json:"username,omitempty"`
	TelegramID  int64              `json:"telegram_id,omitempty"`
	Answers     []string           `json:"answers"`
	SubmittedAt string             `json:"submitted_at"`
	Metadata    submissionMetadata `json:"metadata"`
}

type submissionMetadata struct {
	Source    string `json:"source"`
	UserAgent string `json:"user_agent"`
}

// SubmitAnswers posts a completed response to the provider. Failures are
// returned to the caller but are non-fatal to the conversation.
func (c *Client) SubmitAnswers(ctx context.Context, resp *model.SurveyResponse) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload := submissionPayload{
		SurveyID:    resp.SurveyID,
		UserID:      resp.UserID,
		Username:    resp.TelegramUsername,
		TelegramID:  resp.TelegramUserID,
		Answers:     resp.Answers,
		SubmittedAt: c.now().Format(time.RFC3339),
		Metadata: submissionMetadata{
			Source:    "telegram_bot",
			UserAgent: submissionUserAgent,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/surveys/%d/responses", c.baseURL, resp.SurveyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := c.now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveProviderCall("submit_answers", "transport_error", time.Since(start))
		return fmt.Errorf("submit answers for survey %d: %w", resp.SurveyID, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		metrics.ObserveProviderCall("submit_answers", "http_error", time.Since(start))
		return fmt.Errorf("submit answers for survey %d: http %d", resp.SurveyID, httpResp.StatusCode)
	}

	metrics.ObserveProviderCall("submit_answers", "ok", time.Since(start))
	c.log.Info().Int64("survey_id", resp.SurveyID).Int("answers", len(resp.Answers)).Msg("answers submitted to forms provider")
	return nil
}
