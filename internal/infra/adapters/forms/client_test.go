// File: internal/infra/adapters/forms/client_test.go
package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
)

// staticTokenCache returns a TokenCache pre-seeded with a token that never
// expires within the test, so client tests exercise no OAuth traffic.
func staticTokenCache(token string) *TokenCache {
	tc := NewTokenCache("http://unused", "cid", "secret", time.Second, testLogger())
	tc.token = token
	tc.expiresAt = time.Now().Add(time.Hour)
	return tc
}

func TestClient_FetchSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("flattens the question tree in source order", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			if r.URL.Path != "/forms/15" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			fmt.Fprint(w, `{
				"id": 15,
				"title": "Feedback",
				"description": "quarterly",
				"questions": [
					{"text": "Q1", "subquestions": [{"text": "S1"}, {"text": "S2"}]},
					{"text": "Q2"},
					{"text": "", "subquestions": [{"text": "S3"}]}
				]
			}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		survey, err := c.FetchSurvey(ctx, 15)
		if err != nil {
			t.Fatalf("FetchSurvey failed: %v", err)
		}

		if gotAuth != "OAuth tok" {
			t.Errorf("Authorization = %q, want \"OAuth tok\"", gotAuth)
		}
		want := []string{"Q1", "  - S1", "  - S2", "Q2", "  - S3"}
		if len(survey.Questions) != len(want) {
			t.Fatalf("questions = %v, want %v", survey.Questions, want)
		}
		for i := range want {
			if survey.Questions[i] != want[i] {
				t.Errorf("question %d = %q, want %q", i, survey.Questions[i], want[i])
			}
		}
		if survey.ExternalID != 15 || survey.Title != "Feedback" {
			t.Errorf("unexpected survey header: %+v", survey)
		}
	})

	t.Run("404 maps to ErrSurveyNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		if _, err := c.FetchSurvey(ctx, 404); !errors.Is(err, domain.ErrSurveyNotFound) {
			t.Fatalf("expected ErrSurveyNotFound, got %v", err)
		}
	})

	t.Run("zero flattened questions maps to ErrEmptySurvey", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 7, "title": "empty", "questions": [{"text": ""}]}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		if _, err := c.FetchSurvey(ctx, 7); !errors.Is(err, domain.ErrEmptySurvey) {
			t.Fatalf("expected ErrEmptySurvey, got %v", err)
		}
	})

	t.Run("undecodable body maps to ErrMalformedResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>gateway error</html>`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		if _, err := c.FetchSurvey(ctx, 7); !errors.Is(err, domain.ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("5xx is a plain error, not a sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		_, err := c.FetchSurvey(ctx, 7)
		if err == nil {
			t.Fatal("expected an error")
		}
		if errors.Is(err, domain.ErrSurveyNotFound) || errors.Is(err, domain.ErrEmptySurvey) {
			t.Errorf("5xx misclassified: %v", err)
		}
	})

	t.Run("token failure aborts before any provider call", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		// Token endpoint rejects the credentials.
		oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no", http.StatusUnauthorized)
		}))
		defer oauth.Close()

		tc := NewTokenCache(oauth.URL, "cid", "bad", time.Second, testLogger())
		c := NewClient(srv.URL, tc, time.Second, testLogger())
		if _, err := c.FetchSurvey(ctx, 1); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if called {
			t.Error("provider endpoint was called despite the token failure")
		}
	})
}

func TestClient_SubmitAnswers(t *testing.T) {
	ctx := context.Background()

	t.Run("posts a bearer-authorized payload", func(t *testing.T) {
		var (
			gotAuth string
			gotPath string
			payload map[string]any
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		err := c.SubmitAnswers(ctx, &model.SurveyResponse{
			SurveyID:         15,
			UserID:           "rec-1",
			TelegramUserID:   42,
			TelegramUsername: "anna",
			Answers:          []string{"a", "b"},
		})
		if err != nil {
			t.Fatalf("SubmitAnswers failed: %v", err)
		}

		if gotAuth != "Bearer tok" {
			t.Errorf("Authorization = %q, want \"Bearer tok\"", gotAuth)
		}
		if gotPath != "/surveys/15/responses" {
			t.Errorf("path = %q", gotPath)
		}
		if payload["survey_id"] != float64(15) || payload["user_id"] != "rec-1" || payload["username"] != "anna" {
			t.Errorf("unexpected payload: %v", payload)
		}
		answers, _ := payload["answers"].([]any)
		if len(answers) != 2 || answers[0] != "a" {
			t.Errorf("answers = %v", payload["answers"])
		}
		meta, _ := payload["metadata"].(map[string]any)
		if meta["source"] != "telegram_bot" {
			t.Errorf("metadata = %v", payload["metadata"])
		}
		if _, err := time.Parse(time.RFC3339, payload["submitted_at"].(string)); err != nil {
			t.Errorf("submitted_at is not RFC3339: %v", payload["submitted_at"])
		}
	})

	t.Run("non-2xx surfaces as an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, staticTokenCache("tok"), time.Second, testLogger())
		err := c.SubmitAnswers(ctx, &model.SurveyResponse{SurveyID: 1, Answers: []string{"a"}})
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
