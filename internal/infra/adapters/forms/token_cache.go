// File: internal/infra/adapters/forms/token_cache.go
package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	// tokenScope covers both survey reads and response writes.
	tokenScope = "forms:read forms:write"

	// expiryMargin treats a token within 5 minutes of nominal expiry as
	// already expired, so a request never departs with a token that dies
	// in flight.
	expiryMargin = 300 * time.Second
)

// TokenCache holds the single OAuth2 bearer token shared by every
// conversation and refreshes it via the client-credentials grant when absent
// or expired. The mutex also serializes concurrent refreshes, so two
// conversations racing on an expired token produce one exchange, not two.
// No retries here; callers decide whether a failure is worth repeating.
type TokenCache struct {
	oauthURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	log          *zerolog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

func NewTokenCache(oauthURL, clientID, clientSecret string, timeout time.Duration, logger *zerolog.Logger) *TokenCache {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TokenCache{
		oauthURL:     strings.TrimRight(oauthURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		log:          logger,
		now:          time.Now,
	}
}

// Token returns the cached bearer token, refreshing it first if needed.
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiresAt) {
		return t.token, nil
	}
	return t.refreshLocked(ctx)
}

func (t *TokenCache) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
		"scope":         {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.oauthURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		metrics.IncTokenRefresh("transport_error")
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.IncTokenRefresh("invalid_credentials")
		t.log.Error().Msg("forms provider rejected client_id/client_secret")
		return "", domain.ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncTokenRefresh("http_error")
		return "", fmt.Errorf("token exchange: http %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.IncTokenRefresh("malformed")
		return "", fmt.Errorf("token exchange: decode: %w", err)
	}
	if out.AccessToken == "" {
		metrics.IncTokenRefresh("malformed")
		return "", fmt.Errorf("token exchange: empty access_token")
	}
	if out.ExpiresIn <= 0 {
		out.ExpiresIn = 3600
	}

	t.token = out.AccessToken
	t.expiresAt = t.now().Add(time.Duration(out.ExpiresIn)*time.Second - expiryMargin)

	metrics.IncTokenRefresh("ok")
	t.log.Info().Time("expires_at", t.expiresAt).Msg("forms provider access token refreshed")
	return t.token, nil
}
