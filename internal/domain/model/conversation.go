package model

// Stage is the discrete step of the conversation a user currently occupies.
type Stage string

const (
	StageAwaitingFirstName    Stage = "awaiting_first_name"
	StageAwaitingLastName     Stage = "awaiting_last_name"
	StageAwaitingAge          Stage = "awaiting_age"
	StageAwaitingGender       Stage = "awaiting_gender"
	StageAwaitingSurveyNumber Stage = "awaiting_survey_number"
	StageAnsweringQuestion    Stage = "answering_question"
)

// Registration accumulates the profile fields collected before the directory
// registration call. It exists only during the awaiting_* registration stages.
type Registration struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Age       int    `json:"age,omitempty"`
}

// SurveyProgress owns the survey-answering fields. It exists only in
// StageAnsweringQuestion; earlier stages cannot reference it.
// Invariant: len(Answers) == Index at all times.
type SurveyProgress struct {
	SurveyID  int64    `json:"survey_id"`
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
	Index     int      `json:"index"`
	Answers   []string `json:"answers"`
}

// ConversationState is one user's position in the dialog plus the payload
// valid for that stage family. At most one payload is non-nil.
type ConversationState struct {
	Stage        Stage           `json:"stage"`
	Registration *Registration   `json:"registration,omitempty"`
	Progress     *SurveyProgress `json:"progress,omitempty"`
}

// NewRegistrationState starts the registration chain for an unknown user.
func NewRegistrationState() *ConversationState {
	return &ConversationState{
		Stage:        StageAwaitingFirstName,
		Registration: &Registration{},
	}
}

// NewSurveySelectionState puts a registered user at the survey-number prompt.
func NewSurveySelectionState() *ConversationState {
	return &ConversationState{Stage: StageAwaitingSurveyNumber}
}

// BeginSurvey switches the state into question answering with a fresh,
// empty answer buffer. Any registration leftovers are dropped so answers
// from a prior run can never leak into the new one.
func (s *ConversationState) BeginSurvey(survey *Survey) {
	s.Stage = StageAnsweringQuestion
	s.Registration = nil
	s.Progress = &SurveyProgress{
		SurveyID:  survey.ExternalID,
		Title:     survey.Title,
		Questions: survey.Questions,
		Index:     0,
		Answers:   []string{},
	}
}

// FinishSurvey resets the state back to survey selection.
func (s *ConversationState) FinishSurvey() {
	s.Stage = StageAwaitingSurveyNumber
	s.Progress = nil
}

// RecordAnswer appends one answer and advances the cursor. It reports
// whether more questions remain.
func (p *SurveyProgress) RecordAnswer(text string) bool {
	p.Answers = append(p.Answers, text)
	p.Index++
	return p.Index < len(p.Questions)
}

// CurrentQuestion returns the question the cursor points at.
func (p *SurveyProgress) CurrentQuestion() string { return p.Questions[p.Index] }

// Total is the flattened question count.
func (p *SurveyProgress) Total() int { return len(p.Questions) }
