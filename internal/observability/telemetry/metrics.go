package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_commands_total",
		Help: "Commands processed by intent and outcome (handled, fallback, error)",
	}, []string{"intent", "status"})

	VoicePipelineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_pipeline_latency_seconds",
		Help:    "End-to-end latency of one transcript through the pipeline",
		Buckets: prometheus.DefBuckets,
	})

	VoiceFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_fallbacks_total",
		Help: "Commands deferred to a business system, by reason",
	}, []string{"reason"})

	VoiceEntitiesExtracted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_entities_extracted",
		Help:    "Entities accepted per extraction",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20},
	})

	// Providers
	ProviderAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_provider_attempts_total",
		Help: "Interpretation attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_provider_latency_seconds",
		Help:    "Latency of a single provider attempt",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	// Actions and sessions
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_actions_total",
		Help: "Executed actions by kind and outcome",
	}, []string{"kind", "outcome"})

	SessionStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_session_state_transitions_total",
		Help: "Session state machine transitions by target state",
	}, []string{"to"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_active_sessions",
		Help: "Sessions currently held in memory",
	})

	// Infrastructure
	CacheLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_cache_latency_seconds",
		Help:    "Latency of profile cache reads and writes",
		Buckets: prometheus.DefBuckets,
	})
)
