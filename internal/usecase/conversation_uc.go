package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"telegram-survey-bot/internal/domain"
	"telegram-survey-bot/internal/domain/model"
	"telegram-survey-bot/internal/domain/ports/adapter"
	"telegram-survey-bot/internal/domain/ports/repository"
	"telegram-survey-bot/internal/infra/i18n"
	"telegram-survey-bot/internal/infra/logging"
	"telegram-survey-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// lockTTL guards against a crashed handler wedging a conversation forever.
const lockTTL = 30 * time.Second

// ConversationUseCase drives the per-user survey dialog: registration
// (first name → last name → age → gender), survey selection, and the
// question-answering loop. One inbound message produces one reply and at
// most one state transition; the transition is stored before the reply is
// returned, and a per-user lock serializes messages so transition N is
// fully applied before message N+1 is read.
type ConversationUseCase interface {
	HandleStart(ctx context.Context, tgID int64, username string) (string, error)
	HandleMessage(ctx context.Context, tgID int64, username, text string) (string, error)
	HandleCancel(ctx context.Context, tgID int64) (string, error)
	Inspect(ctx context.Context, tgID int64) (*model.ConversationState, error)
}

type conversationUC struct {
	states repository.ConversationStateRepository
	locks  repository.ConversationLocker
	forms  adapter.FormsProvider
	dir    adapter.UserDirectory
	tr     *i18n.Translator
	log    *zerolog.Logger
}

func NewConversationUseCase(
	states repository.ConversationStateRepository,
	locks repository.ConversationLocker,
	forms adapter.FormsProvider,
	dir adapter.UserDirectory,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) *conversationUC {
	return &conversationUC{
		states: states,
		locks:  locks,
		forms:  forms,
		dir:    dir,
		tr:     tr,
		log:    logger,
	}
}

// HandleStart resolves first contact: a known directory user goes straight
// to survey selection, an unknown one enters the registration chain. There
// is no persisted idle stage.
func (c *conversationUC) HandleStart(ctx context.Context, tgID int64, username string) (string, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleStart")()

	token, err := c.locks.Acquire(ctx, tgID, lockTTL)
	if err != nil {
		return "", err
	}
	defer c.releaseLock(ctx, tgID, token)

	return c.enterConversation(ctx, tgID, username)
}

// HandleMessage feeds one inbound text message into the state machine.
func (c *conversationUC) HandleMessage(ctx context.Context, tgID int64, username, text string) (string, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleMessage")()

	token, err := c.locks.Acquire(ctx, tgID, lockTTL)
	if err != nil {
		return "", err
	}
	defer c.releaseLock(ctx, tgID, token)

	state, err := c.states.Get(ctx, tgID)
	if errors.Is(err, domain.ErrNotFound) {
		// Never-seen (or expired) user: any message counts as first contact.
		return c.enterConversation(ctx, tgID, username)
	}
	if err != nil {
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("read conversation state")
		return c.tr.T("internal_error"), nil
	}

	switch state.Stage {
	case model.StageAwaitingFirstName:
		return c.receiveFirstName(ctx, tgID, state, text)
	case model.StageAwaitingLastName:
		return c.receiveLastName(ctx, tgID, state, text)
	case model.StageAwaitingAge:
		return c.receiveAge(ctx, tgID, state, text)
	case model.StageAwaitingGender:
		return c.receiveGender(ctx, tgID, state, username, text)
	case model.StageAwaitingSurveyNumber:
		return c.receiveSurveyNumber(ctx, tgID, state, text)
	case model.StageAnsweringQuestion:
		return c.receiveAnswer(ctx, tgID, state, username, text)
	default:
		// Unknown stage in the store: reset via the entry branch.
		c.log.Warn().Str("stage", string(state.Stage)).Int64("tg_id", tgID).Msg("unknown conversation stage, re-entering")
		return c.enterConversation(ctx, tgID, username)
	}
}

// HandleCancel drops the current state; the next message starts over.
func (c *conversationUC) HandleCancel(ctx context.Context, tgID int64) (string, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleCancel")()

	token, err := c.locks.Acquire(ctx, tgID, lockTTL)
	if err != nil {
		return "", err
	}
	defer c.releaseLock(ctx, tgID, token)

	if err := c.states.Clear(ctx, tgID); err != nil {
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("clear conversation state")
		return c.tr.T("internal_error"), nil
	}
	return c.tr.T("cancelled"), nil
}

// Inspect returns the raw stored state for the ops API.
func (c *conversationUC) Inspect(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	return c.states.Get(ctx, tgID)
}

func (c *conversationUC) enterConversation(ctx context.Context, tgID int64, username string) (string, error) {
	record, err := c.dir.LookupByHandle(ctx, username)
	switch {
	case err == nil:
		state := model.NewSurveySelectionState()
		if err := c.states.Set(ctx, tgID, state); err != nil {
			c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
			return c.tr.T("internal_error"), nil
		}
		metrics.IncStageTransition("entry", string(model.StageAwaitingSurveyNumber))
		return c.tr.T("welcome_known", record.Name), nil

	case errors.Is(err, domain.ErrNotFound):
		state := model.NewRegistrationState()
		if err := c.states.Set(ctx, tgID, state); err != nil {
			c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
			return c.tr.T("internal_error"), nil
		}
		metrics.IncStageTransition("entry", string(model.StageAwaitingFirstName))
		return c.tr.T("welcome_new"), nil

	default:
		// Blocking step failed: no state is written, the same input is safe
		// to repeat.
		c.log.Warn().Err(err).Int64("tg_id", tgID).Msg("directory lookup failed on first contact")
		return c.tr.T("directory_unavailable"), nil
	}
}

func (c *conversationUC) receiveFirstName(ctx context.Context, tgID int64, state *model.ConversationState, text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("empty_first_name"), nil
	}
	state.Registration.FirstName = name
	return c.advance(ctx, tgID, state, model.StageAwaitingLastName, c.tr.T("ask_last_name"))
}

func (c *conversationUC) receiveLastName(ctx context.Context, tgID int64, state *model.ConversationState, text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("empty_last_name"), nil
	}
	state.Registration.LastName = name
	return c.advance(ctx, tgID, state, model.StageAwaitingAge, c.tr.T("ask_age"))
}

func (c *conversationUC) receiveAge(ctx context.Context, tgID int64, state *model.ConversationState, text string) (string, error) {
	age, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("age_not_number"), nil
	}
	if !model.ValidAge(age) {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("age_out_of_range"), nil
	}
	state.Registration.Age = age
	return c.advance(ctx, tgID, state, model.StageAwaitingGender, c.tr.T("ask_gender"))
}

func (c *conversationUC) receiveGender(ctx context.Context, tgID int64, state *model.ConversationState, username, text string) (string, error) {
	gender, ok := model.NormalizeGender(text)
	if !ok {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("gender_unrecognized"), nil
	}

	reg := state.Registration
	_, err := c.dir.Register(ctx, adapter.RegisterRequest{
		TgNickname: username,
		Name:       reg.FirstName,
		Surname:    reg.LastName,
		Age:        reg.Age,
		Gender:     gender,
	})
	if err != nil {
		// State stays at awaiting_gender; the user can resend a gender token
		// once the directory recovers.
		c.log.Warn().Err(err).Int64("tg_id", tgID).Msg("directory registration failed")
		metrics.IncMessageHandled(string(state.Stage), "error")
		return c.tr.T("registration_failed"), nil
	}

	next := model.NewSurveySelectionState()
	if err := c.states.Set(ctx, tgID, next); err != nil {
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
		return c.tr.T("internal_error"), nil
	}
	metrics.IncMessageHandled(string(model.StageAwaitingGender), "advance")
	metrics.IncStageTransition(string(model.StageAwaitingGender), string(model.StageAwaitingSurveyNumber))
	return c.tr.T("registration_done"), nil
}

func (c *conversationUC) receiveSurveyNumber(ctx context.Context, tgID int64, state *model.ConversationState, text string) (string, error) {
	surveyID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("survey_number_invalid"), nil
	}

	ctx = logging.WithSurveyID(ctx, surveyID)
	survey, err := c.forms.FetchSurvey(ctx, surveyID)
	switch {
	case errors.Is(err, domain.ErrSurveyNotFound):
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("survey_not_found", surveyID), nil
	case errors.Is(err, domain.ErrEmptySurvey):
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("survey_empty", surveyID), nil
	case err != nil:
		// Auth, transport or malformed-payload failure: state untouched.
		logging.With(ctx, c.log).Warn().Err(err).Msg("survey fetch failed")
		metrics.IncMessageHandled(string(state.Stage), "error")
		return c.tr.T("survey_load_failed", surveyID), nil
	}

	state.BeginSurvey(survey)
	if err := c.states.Set(ctx, tgID, state); err != nil {
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
		return c.tr.T("internal_error"), nil
	}
	metrics.IncMessageHandled(string(model.StageAwaitingSurveyNumber), "advance")
	metrics.IncStageTransition(string(model.StageAwaitingSurveyNumber), string(model.StageAnsweringQuestion))

	title := survey.Title
	if title == "" {
		title = c.tr.T("survey_title_fallback", surveyID)
	}
	return c.tr.T("survey_begin", title, state.Progress.Total(), state.Progress.CurrentQuestion()), nil
}

func (c *conversationUC) receiveAnswer(ctx context.Context, tgID int64, state *model.ConversationState, username, text string) (string, error) {
	answer := strings.TrimSpace(text)
	if answer == "" {
		metrics.IncMessageHandled(string(state.Stage), "reprompt")
		return c.tr.T("answer_empty"), nil
	}

	progress := state.Progress
	if progress.RecordAnswer(answer) {
		if err := c.states.Set(ctx, tgID, state); err != nil {
			c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
			return c.tr.T("internal_error"), nil
		}
		metrics.IncMessageHandled(string(model.StageAnsweringQuestion), "advance")
		return c.tr.T("next_question", progress.Index+1, progress.Total(), progress.CurrentQuestion()), nil
	}

	// Last answer recorded: the response is built once here and handed off.
	delivered := c.deliverResponse(ctx, tgID, username, progress)

	state.FinishSurvey()
	if err := c.states.Set(ctx, tgID, state); err != nil {
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
		return c.tr.T("internal_error"), nil
	}
	metrics.IncMessageHandled(string(model.StageAnsweringQuestion), "advance")
	metrics.IncStageTransition(string(model.StageAnsweringQuestion), string(model.StageAwaitingSurveyNumber))

	if !delivered {
		return c.tr.T("survey_done_delivery_failed"), nil
	}
	return c.tr.T("survey_done"), nil
}

// deliverResponse submits the completed survey to the forms provider and the
// persistence collaborator. Both are best effort: the conversation completes
// either way, the user just learns when delivery is uncertain.
func (c *conversationUC) deliverResponse(ctx context.Context, tgID int64, username string, progress *model.SurveyProgress) bool {
	resp := &model.SurveyResponse{
		SurveyID:         progress.SurveyID,
		TelegramUserID:   tgID,
		TelegramUsername: username,
		Answers:          progress.Answers,
	}
	if record, err := c.dir.LookupByHandle(ctx, username); err == nil {
		resp.UserID = record.ID
	} else {
		c.log.Warn().Err(err).Int64("tg_id", tgID).Msg("identity lookup before submission failed, submitting without user id")
	}

	delivered := true
	if err := c.forms.SubmitAnswers(ctx, resp); err != nil {
		c.log.Warn().Err(err).Int64("survey_id", resp.SurveyID).Msg("provider submission failed")
		metrics.IncSubmission("provider", false)
		delivered = false
	} else {
		metrics.IncSubmission("provider", true)
	}

	if err := c.dir.SubmitResponse(ctx, resp); err != nil {
		c.log.Warn().Err(err).Int64("survey_id", resp.SurveyID).Msg("persistence submission failed")
		metrics.IncSubmission("persistence", false)
		delivered = false
	} else {
		metrics.IncSubmission("persistence", true)
	}
	return delivered
}

// advance stores the state under its new stage and returns the prompt for it.
func (c *conversationUC) advance(ctx context.Context, tgID int64, state *model.ConversationState, next model.Stage, prompt string) (string, error) {
	prev := state.Stage
	state.Stage = next
	if err := c.states.Set(ctx, tgID, state); err != nil {
		state.Stage = prev
		c.log.Error().Err(err).Int64("tg_id", tgID).Msg("store conversation state")
		return c.tr.T("internal_error"), nil
	}
	metrics.IncMessageHandled(string(prev), "advance")
	metrics.IncStageTransition(string(prev), string(next))
	return prompt, nil
}

func (c *conversationUC) releaseLock(ctx context.Context, tgID int64, token string) {
	if err := c.locks.Release(ctx, tgID, token); err != nil {
		c.log.Warn().Err(err).Int64("tg_id", tgID).Msg("release conversation lock")
	}
}
