// File: internal/infra/adapters/forms/token_cache_test.go
package forms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-survey-bot/internal/domain"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func oauthServer(t *testing.T, calls *int64, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(calls, 1)
		if r.URL.Path != "/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "cid" {
			t.Errorf("client_id = %q", got)
		}
		if got := r.PostForm.Get("client_secret"); got != "secret" {
			t.Errorf("client_secret = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d}`, n, expiresIn)
	}))
}

func TestTokenCache_ReusesValidToken(t *testing.T) {
	var calls int64
	srv := oauthServer(t, &calls, 3600)
	defer srv.Close()

	tc := NewTokenCache(srv.URL, "cid", "secret", time.Second, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tok, err := tc.Token(ctx)
		if err != nil {
			t.Fatalf("Token call %d failed: %v", i, err)
		}
		if tok != "tok-1" {
			t.Errorf("Token call %d = %q, want tok-1", i, tok)
		}
	}
	if calls != 1 {
		t.Errorf("expected exactly one exchange, got %d", calls)
	}
}

func TestTokenCache_RefreshesWithinExpiryMargin(t *testing.T) {
	var calls int64
	srv := oauthServer(t, &calls, 600)
	defer srv.Close()

	tc := NewTokenCache(srv.URL, "cid", "secret", time.Second, testLogger())
	base := time.Now()
	tc.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := tc.Token(ctx); err != nil {
		t.Fatalf("first Token failed: %v", err)
	}

	// 600s lifetime minus the 300s margin: still valid at +299s.
	tc.now = func() time.Time { return base.Add(299 * time.Second) }
	tok, err := tc.Token(ctx)
	if err != nil {
		t.Fatalf("Token at +299s failed: %v", err)
	}
	if tok != "tok-1" || calls != 1 {
		t.Errorf("expected cached token at +299s, got %q after %d exchanges", tok, calls)
	}

	// At +300s the margin is hit and the token must be replaced.
	tc.now = func() time.Time { return base.Add(300 * time.Second) }
	tok, err = tc.Token(ctx)
	if err != nil {
		t.Fatalf("Token at +300s failed: %v", err)
	}
	if tok != "tok-2" || calls != 2 {
		t.Errorf("expected a refresh at +300s, got %q after %d exchanges", tok, calls)
	}
}

func TestTokenCache_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tc := NewTokenCache(srv.URL, "cid", "wrong", time.Second, testLogger())
	_, err := tc.Token(context.Background())
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenCache_TransientFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json")
		}},
		{"empty access token", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"access_token":"","expires_in":3600}`)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			cache := NewTokenCache(srv.URL, "cid", "secret", time.Second, testLogger())
			_, err := cache.Token(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("transient failure misclassified as invalid credentials: %v", err)
			}
		})
	}
}

func TestTokenCache_DefaultLifetime(t *testing.T) {
	var calls int64
	srv := oauthServer(t, &calls, 0)
	defer srv.Close()

	tc := NewTokenCache(srv.URL, "cid", "secret", time.Second, testLogger())
	base := time.Now()
	tc.now = func() time.Time { return base }

	if _, err := tc.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	// Missing expires_in falls back to 3600s; minus the margin the token
	// should survive to +3299s.
	tc.now = func() time.Time { return base.Add(3299 * time.Second) }
	tok, err := tc.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "tok-1" || calls != 1 {
		t.Errorf("expected the default lifetime to apply, got %q after %d exchanges", tok, calls)
	}
}
