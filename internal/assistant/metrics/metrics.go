// Package metrics exposes the assistant's internal Prometheus collectors.
// The filter fallback counter exists because the filter extractor degrades
// silently toward the user; without it malformed filters are invisible.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilterParseFallbacks counts metadata filter replies that failed to parse
	// and were downgraded to the empty match-all filter.
	FilterParseFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assistant",
		Name:      "filter_parse_fallback_total",
		Help:      "Metadata filter extractions downgraded to the empty filter.",
	})

	// ToolInvocations counts agent tool executions by tool name.
	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Name:      "tool_invocations_total",
		Help:      "Agent tool executions by tool name.",
	}, []string{"tool"})

	// TurnDuration observes wall time per fully resolved user turn.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assistant",
		Name:      "turn_duration_seconds",
		Help:      "Duration of one fully resolved user turn.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)
