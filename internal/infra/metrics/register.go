// File: internal/infra/metrics/register.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// MustRegister installs every collector this bot exports with the default
// Prometheus registry. Safe to call more than once; only the first call
// registers.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			messagesHandled,
			stageTransitions,
			surveySubmissions,
			providerLatencyMs,
			tokenRefreshes,
			directoryLatencyMs,
			buildInfo,
		)
	})
}
