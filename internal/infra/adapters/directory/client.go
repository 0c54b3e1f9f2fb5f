// File: internal/infra/adapters/directory/client.go
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
	"telegram-survey-bot/internal/domain/ports/adapter"
	"telegram-survey-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.UserDirectory = (*Client)(nil)

// Client talks to the user-registry service and its survey persistence
// endpoint. Lookup misses are a normal outcome (domain.ErrNotFound), not
// a failure. Registration is not idempotent on the server side, so callers
// always check LookupByHandle first.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) LookupByHandle(ctx context.Context, handle string) (*model.UserRecord, error) {
	if handle == "" {
		return nil, domain.ErrNotFound
	}

	url := fmt.Sprintf("%s/api/users/by-nickname/%s/", c.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveDirectoryCall("lookup", "transport_error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.ObserveDirectoryCall("lookup", "not_found", time.Since(start))
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.ObserveDirectoryCall("lookup", "http_error", time.Since(start))
		return nil, fmt.Errorf("%w: lookup http %d", domain.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var record model.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		metrics.ObserveDirectoryCall("lookup", "malformed", time.Since(start))
		return nil, fmt.Errorf("%w: decode lookup: %v", domain.ErrDirectoryUnavailable, err)
	}
	metrics.ObserveDirectoryCall("lookup", "ok", time.Since(start))
	return &record, nil
}

func (c *Client) Register(ctx context.Context, reg adapter.RegisterRequest) (*model.UserRecord, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/users/register/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveDirectoryCall("register", "transport_error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		metrics.ObserveDirectoryCall("register", "validation", time.Since(start))
		return nil, domain.ErrValidation
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.ObserveDirectoryCall("register", "http_error", time.Since(start))
		return nil, fmt.Errorf("%w: register http %d", domain.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var record model.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		metrics.ObserveDirectoryCall("register", "malformed", time.Since(start))
		return nil, fmt.Errorf("%w: decode register: %v", domain.ErrDirectoryUnavailable, err)
	}
	metrics.ObserveDirectoryCall("register", "ok", time.Since(start))
	c.log.Info().Str("handle", reg.TgNickname).Msg("user registered in directory")
	return &record, nil
}

type persistPayload struct {
	Answers          []string `json:"answers"`
	UserID           string   `json:"user_id,omitempty"`
	TelegramUserID   string   `json:"telegram_user_id,omitempty"`
	TelegramUsername string   `json:"telegram_username,omitempty"`
}

// SubmitResponse hands a completed survey response to the persistence
// collaborator. Best effort: the conversation completes either way.
func (c *Client) SubmitResponse(ctx context.Context, resp *model.SurveyResponse) error {
	payload := persistPayload{
		Answers:          resp.Answers,
		UserID:           resp.UserID,
		TelegramUsername: resp.TelegramUsername,
	}
	if resp.TelegramUserID != 0 {
		payload.TelegramUserID = strconv.FormatInt(resp.TelegramUserID, 10)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/surveys/%d/submit/", c.baseURL, resp.SurveyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveDirectoryCall("submit_response", "transport_error", time.Since(start))
		return fmt.Errorf("persist response for survey %d: %w", resp.SurveyID, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		metrics.ObserveDirectoryCall("submit_response", "http_error", time.Since(start))
		return fmt.Errorf("persist response for survey %d: http %d", resp.SurveyID, httpResp.StatusCode)
	}
	metrics.ObserveDirectoryCall("submit_response", "ok", time.Since(start))
	return nil
}
