// Package domain holds the core entities shared across the discovery
// pipeline: mined pain points, their clusters, scored app opportunities,
// trend validations and the final briefing report.
package domain

import "time"

// SourceKind identifies the external platform a record or pain point came from.
type SourceKind string

const (
	SourceReddit      SourceKind = "reddit"
	SourceTwitter     SourceKind = "twitter"
	SourceYouTube     SourceKind = "youtube"
	SourceProductHunt SourceKind = "producthunt"
	SourceTrends      SourceKind = "google_trends"
)

// CollectOrder is the declared order of the collection sources. Parallel
// branch outputs are concatenated in this order so runs are deterministic.
var CollectOrder = []SourceKind{SourceReddit, SourceTwitter, SourceYouTube, SourceProductHunt}

// NormalizedRecord is one raw item fetched from a source client, reduced to
// the fields the extractor needs.
type NormalizedRecord struct {
	ID         string
	Source     SourceKind
	Title      string
	Text       string
	Engagement int
	Author     string
	Permalink  string
	CreatedAt  time.Time
	Metadata   map[string]string
}

// PainPoint is one mined complaint or wish statement. Immutable once created;
// downstream entities reference it, they never copy it.
type PainPoint struct {
	ID          string
	Quote       string
	Problem     string
	Source      SourceKind
	SourceID    string
	Engagement  int
	ExtractedAt time.Time
	Metadata    map[string]string
}

// PainPointCluster groups pain points judged to describe the same underlying
// problem. Built in a single clustering pass and read-only afterward.
type PainPointCluster struct {
	// Representative is always the problem text of the highest-engagement member.
	Representative     string
	Members            []*PainPoint
	EngagementBySource map[SourceKind]int
	TotalEngagement    int
}

// SourceCount returns the number of distinct sources contributing members.
func (c *PainPointCluster) SourceCount() int {
	return len(c.EngagementBySource)
}

// TrendDirection classifies week-over-week search-interest momentum.
type TrendDirection string

const (
	TrendRising    TrendDirection = "rising"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// Audience classification tags.
const (
	AudienceTechnical = "technical"
	AudienceBusiness  = "business"
)

// TrendValidation is the result of one demand query for a keyword.
// Created fresh per validation call; never mutated.
type TrendValidation struct {
	Keyword        string
	InterestScore  int
	Momentum       float64
	Direction      TrendDirection
	RelatedQueries []string
	AudienceTags   []string
	TrendScore     int
	Provider       string
}

// AppOpportunity is one scored, ranked candidate app concept.
// All four scores are integers in [0,100].
type AppOpportunity struct {
	ID                string
	Problem           string
	AppIdea           string
	SearchKeyword     string
	DemandScore       int
	ViralityScore     int
	BuildabilityScore int
	// OpportunityScore == round(0.4*demand + 0.4*virality + 0.2*buildability).
	OpportunityScore int
	PainPoints       []*PainPoint
	Categories       []string
	SimilarProducts  []string
	Trend            *TrendValidation
}

// UsageCounters maps provider names to external call counts.
type UsageCounters map[string]int

// Add sums the counters from other into u.
func (u UsageCounters) Add(other UsageCounters) {
	for k, v := range other {
		u[k] += v
	}
}

// BriefingKind distinguishes stored briefing records.
type BriefingKind string

const (
	BriefingDaily  BriefingKind = "daily"
	BriefingWeekly BriefingKind = "weekly"
)

// Briefing is the final report of a discovery run: the ranked opportunities
// plus the counters that make partial or empty runs distinguishable.
type Briefing struct {
	ID                  string
	Kind                BriefingKind
	GeneratedAt         time.Time
	TopOpportunities    []*AppOpportunity
	Clusters            []*PainPointCluster
	TotalDataPoints     int
	PainPointsExtracted int
	CandidatesFiltered  int
	ProviderCalls       UsageCounters
	TokensUsed          int64
	EstimatedCostUSD    float64
	// Notes holds per-branch degradation annotations ("reddit: timeout").
	// A run with notes is still a successful run.
	Notes []string
}
