package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oppradar_source_requests_total",
		Help: "The total number of source client requests by provider and status",
	}, []string{"provider", "status"})

	SourceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oppradar_source_request_duration_seconds",
		Help:    "Duration of source client requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	TrendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oppradar_trend_requests_total",
		Help: "The total number of trend provider requests by provider and status",
	}, []string{"provider", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oppradar_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oppradar_llm_tokens_total",
		Help: "The total number of LLM tokens consumed",
	})

	DiscoveryStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oppradar_discovery_stage_duration_seconds",
		Help:    "Duration of discovery pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	DiscoveryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oppradar_discovery_runs_total",
		Help: "The total number of discovery runs by outcome",
	}, []string{"status"})

	PainPointsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oppradar_pain_points_extracted_total",
		Help: "The total number of pain points mined from source records",
	})

	OpportunitiesRanked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oppradar_opportunities_ranked",
		Help: "Number of opportunities in the most recent briefing",
	})
)
