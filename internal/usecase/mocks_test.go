// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
	"telegram-survey-bot/internal/domain/ports/adapter"
	"telegram-survey-bot/internal/infra/i18n"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	return tr
}

// memStateRepo keeps conversation states in memory. States round-trip through
// JSON on every Get/Set, same as the real Redis repo, so mutating a state the
// engine holds never silently mutates the stored copy.
type memStateRepo struct {
	mu    sync.Mutex
	store map[int64][]byte

	GetFunc func(ctx context.Context, tgID int64) (*model.ConversationState, error)
	SetFunc func(ctx context.Context, tgID int64, state *model.ConversationState) error
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{store: make(map[int64][]byte)}
}

func (m *memStateRepo) Get(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var state model.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *memStateRepo) Set(ctx context.Context, tgID int64, state *model.ConversationState) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, tgID, state)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[tgID] = raw
	return nil
}

func (m *memStateRepo) Clear(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, tgID)
	return nil
}

// mustGet fails the test if the state is absent.
func (m *memStateRepo) mustGet(t *testing.T, tgID int64) *model.ConversationState {
	t.Helper()
	state, err := m.Get(context.Background(), tgID)
	if err != nil {
		t.Fatalf("state for %d: %v", tgID, err)
	}
	return state
}

// memLocker hands out the lock immediately and counts acquire/release pairs.
type memLocker struct {
	mu       sync.Mutex
	acquired int
	released int

	AcquireFunc func(ctx context.Context, tgID int64, ttl time.Duration) (string, error)
}

func (m *memLocker) Acquire(ctx context.Context, tgID int64, ttl time.Duration) (string, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, tgID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired++
	return "test-lock-token", nil
}

func (m *memLocker) Release(ctx context.Context, tgID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	return nil
}

func (m *memLocker) balanced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired == m.released
}

// mockForms implements adapter.FormsProvider with overridable behavior.
type mockForms struct {
	FetchSurveyFunc   func(ctx context.Context, surveyID int64) (*model.Survey, error)
	SubmitAnswersFunc func(ctx context.Context, resp *model.SurveyResponse) error

	mu        sync.Mutex
	submitted []*model.SurveyResponse
}

func (m *mockForms) FetchSurvey(ctx context.Context, surveyID int64) (*model.Survey, error) {
	if m.FetchSurveyFunc != nil {
		return m.FetchSurveyFunc(ctx, surveyID)
	}
	return nil, domain.ErrSurveyNotFound
}

func (m *mockForms) SubmitAnswers(ctx context.Context, resp *model.SurveyResponse) error {
	m.mu.Lock()
	m.submitted = append(m.submitted, resp)
	m.mu.Unlock()
	if m.SubmitAnswersFunc != nil {
		return m.SubmitAnswersFunc(ctx, resp)
	}
	return nil
}

// mockDirectory implements adapter.UserDirectory. By default nobody is
// registered and registration succeeds.
type mockDirectory struct {
	LookupByHandleFunc func(ctx context.Context, handle string) (*model.UserRecord, error)
	RegisterFunc       func(ctx context.Context, req adapter.RegisterRequest) (*model.UserRecord, error)
	SubmitResponseFunc func(ctx context.Context, resp *model.SurveyResponse) error

	mu         sync.Mutex
	registered []adapter.RegisterRequest
	persisted  []*model.SurveyResponse
}

func (m *mockDirectory) LookupByHandle(ctx context.Context, handle string) (*model.UserRecord, error) {
	if m.LookupByHandleFunc != nil {
		return m.LookupByHandleFunc(ctx, handle)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDirectory) Register(ctx context.Context, req adapter.RegisterRequest) (*model.UserRecord, error) {
	m.mu.Lock()
	m.registered = append(m.registered, req)
	m.mu.Unlock()
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &model.UserRecord{
		ID:         "rec-1",
		TgNickname: req.TgNickname,
		Name:       req.Name,
		Surname:    req.Surname,
		Age:        req.Age,
		Gender:     req.Gender,
	}, nil
}

func (m *mockDirectory) SubmitResponse(ctx context.Context, resp *model.SurveyResponse) error {
	m.mu.Lock()
	m.persisted = append(m.persisted, resp)
	m.mu.Unlock()
	if m.SubmitResponseFunc != nil {
		return m.SubmitResponseFunc(ctx, resp)
	}
	return nil
}
