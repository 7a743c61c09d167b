// Package metrics registers the process-wide Prometheus instruments.
// Counters are package-level so they register once at init and can be shared
// by every service instance, including the ones tests construct.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Resolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_resolutions_total",
		Help: "Tag resolutions computed from the rule set",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_cache_hits_total",
		Help: "Tag cache fast-path hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_cache_misses_total",
		Help: "Tag cache misses and forced recomputations",
	})

	RevalidationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_revalidation_passes_total",
		Help: "Completed revalidation sweeps over connected identities",
	})

	RevalidationChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_revalidation_changes_total",
		Help: "Revalidations that produced a different resolved tag",
	})

	BadgePushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_badge_pushes_total",
		Help: "Score tag values pushed to the presentation sink",
	})

	ApplyRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_apply_retries_total",
		Help: "Rescheduled apply-on-join attempts",
	})

	ApplyAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_apply_abandoned_total",
		Help: "Apply-on-join chains that exhausted their retry budget",
	})

	MessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_messages_processed_total",
		Help: "Chat messages run through the pipeline and delivered",
	})

	MessagesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_messages_suppressed_total",
		Help: "Chat messages vetoed or dropped by the pipeline",
	})

	ObserverPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tagd_observer_panics_total",
		Help: "Panics recovered from isolated notification observers",
	})
)
