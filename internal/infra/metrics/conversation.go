package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_handled_total",
			Help: "Inbound messages by conversation stage and outcome (advance/reprompt/error).",
		},
		[]string{"stage", "outcome"},
	)

	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_stage_transitions_total",
			Help: "Stage transitions applied to the conversation store.",
		},
		[]string{"from", "to"},
	)

	surveySubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Completed-survey submissions by target (provider/persistence) and outcome.",
		},
		[]string{"target", "outcome"},
	)
)

func IncMessageHandled(stage, outcome string) {
	messagesHandled.WithLabelValues(stage, outcome).Inc()
}

func IncStageTransition(from, to string) {
	stageTransitions.WithLabelValues(from, to).Inc()
}

func IncSubmission(target string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	surveySubmissions.WithLabelValues(target, outcome).Inc()
}
