package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Build metadata, set at link time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bot_build_info",
		Help: "Build metadata; value is always 1.",
	},
	[]string{"version", "commit"},
)

// SetBuildInfo publishes the build labels once at startup.
func SetBuildInfo() {
	buildInfo.WithLabelValues(Version, Commit).Set(1)
}
