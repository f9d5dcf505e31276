// Package briefing assembles and renders the discovery run reports.
package briefing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/process/rank"
)

// Store persists briefings.
type Store interface {
	Create(ctx context.Context, briefing *domain.Briefing) error
	LatestByKind(ctx context.Context, kind domain.BriefingKind) (*domain.Briefing, error)
	RangeByKind(ctx context.Context, kind domain.BriefingKind, from, to time.Time) ([]*domain.Briefing, error)
}

// RunStats carries the run counters into the report.
type RunStats struct {
	TotalDataPoints     int
	PainPointsExtracted int
	CandidatesFiltered  int
	ProviderCalls       domain.UsageCounters
	TokensUsed          int64
	EstimatedCostUSD    float64
	Notes               []string
}

// Build assembles the briefing record for one run. An empty opportunity list
// is a legitimate briefing: the counters and notes tell the reader why.
func Build(kind domain.BriefingKind, ranked []*domain.AppOpportunity, clusters []*domain.PainPointCluster, stats RunStats) *domain.Briefing {
	return &domain.Briefing{
		ID:                  uuid.NewString(),
		Kind:                kind,
		GeneratedAt:         time.Now().UTC(),
		TopOpportunities:    ranked,
		Clusters:            clusters,
		TotalDataPoints:     stats.TotalDataPoints,
		PainPointsExtracted: stats.PainPointsExtracted,
		CandidatesFiltered:  stats.CandidatesFiltered,
		ProviderCalls:       stats.ProviderCalls,
		TokensUsed:          stats.TokensUsed,
		EstimatedCostUSD:    stats.EstimatedCostUSD,
		Notes:               stats.Notes,
	}
}

// BuildWeekly folds a week of daily briefings into one ranked digest.
// Opportunities from every day compete again on their composite score;
// counters and notes sum across the inputs.
func BuildWeekly(dailies []*domain.Briefing, topN int) *domain.Briefing {
	stats := RunStats{ProviderCalls: make(domain.UsageCounters)}

	var (
		opportunities []*domain.AppOpportunity
		clusters      []*domain.PainPointCluster
	)

	for _, daily := range dailies {
		opportunities = append(opportunities, daily.TopOpportunities...)
		clusters = append(clusters, daily.Clusters...)

		stats.TotalDataPoints += daily.TotalDataPoints
		stats.PainPointsExtracted += daily.PainPointsExtracted
		stats.CandidatesFiltered += daily.CandidatesFiltered
		stats.TokensUsed += daily.TokensUsed
		stats.EstimatedCostUSD += daily.EstimatedCostUSD
		stats.Notes = append(stats.Notes, daily.Notes...)

		if daily.ProviderCalls != nil {
			stats.ProviderCalls.Add(daily.ProviderCalls)
		}
	}

	return Build(domain.BriefingWeekly, rank.Top(opportunities, topN), clusters, stats)
}
