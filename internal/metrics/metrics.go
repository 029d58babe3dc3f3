package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReactionToggles counts committed toggles by target type and action.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_reaction_toggles_total",
		Help: "Committed reaction toggles.",
	}, []string{"target_type", "action"})

	ReactionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_reaction_conflict_retries_total",
		Help: "Toggle attempts that lost an optimistic race and were retried.",
	}, []string{"target_type"})

	ReactionExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_reaction_retries_exhausted_total",
		Help: "Toggles that gave up after the retry budget.",
	}, []string{"target_type"})

	ReactionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_reaction_toggle_seconds",
		Help:    "Toggle latency including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target_type"})

	// CounterDrift counts targets whose counters were rewritten by reconciliation.
	CounterDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_reaction_counter_drift_total",
		Help: "Targets whose like/dislike counters disagreed with their reaction rows.",
	}, []string{"target_type"})
)
