// Package metrics exposes Prometheus collectors for the long-running watcher
// mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts pipeline runs by outcome.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// BlockedCampaigns counts campaigns stopped by legal screening.
	BlockedCampaigns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_blocked_total",
			Help: "Campaigns blocked by legal screening before generation",
		},
	)

	// CreativesEvaluated counts compliance gate evaluations by verdict.
	CreativesEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatives_evaluated_total",
			Help: "Creatives evaluated by the compliance gate, by verdict",
		},
		[]string{"verdict"},
	)

	// GenerationCalls counts calls to the generation API by kind.
	GenerationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_calls_total",
			Help: "Generation API calls by kind",
		},
		[]string{"kind"},
	)

	// RunDuration tracks pipeline run duration.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_run_duration_seconds",
			Help:    "Time spent per pipeline run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register installs all collectors on a registry and returns an HTTP handler
// for /metrics.
func Register(reg *prometheus.Registry) http.Handler {
	reg.MustRegister(
		RunsTotal,
		BlockedCampaigns,
		CreativesEvaluated,
		GenerationCalls,
		RunDuration,
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
