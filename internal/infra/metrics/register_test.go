// File: internal/infra/metrics/register_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMustRegister(t *testing.T) {
	// A second call must not panic on duplicate registration.
	MustRegister()
	MustRegister()

	IncMessageHandled("awaiting_age", "reprompt")
	IncStageTransition("awaiting_age", "awaiting_gender")
	IncSubmission("provider", true)
	IncTokenRefresh("ok")
	ObserveProviderCall("fetch_survey", "ok", 12*time.Millisecond)
	ObserveDirectoryCall("lookup", "ok", 8*time.Millisecond)
	SetBuildInfo()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := make(map[string]bool, len(families))
	for _, mf := range families {
		got[mf.GetName()] = true
	}
	for _, name := range []string{
		"bot_messages_handled_total",
		"conversation_stage_transitions_total",
		"survey_submissions_total",
		"forms_provider_latency_ms",
		"oauth_token_refreshes_total",
		"user_directory_latency_ms",
		"bot_build_info",
	} {
		if !got[name] {
			t.Errorf("collector %s is not registered", name)
		}
	}
}
