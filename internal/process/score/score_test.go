package score

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/llm"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestGenerateConcepts(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue("1 | invoice automation | Auto-chase overdue invoices for freelancers | 70 | 80\n2 | budget bank sync | Sync bank feeds into budgeting sheets | 55 | 60\n")

	scorer := New(mock, testLogger())

	clusters := []*domain.PainPointCluster{
		{Representative: "manual invoicing wastes hours", EngagementBySource: map[domain.SourceKind]int{domain.SourceReddit: 30}},
		{Representative: "bank feeds never sync", EngagementBySource: map[domain.SourceKind]int{domain.SourceYouTube: 5}},
	}

	opps, err := scorer.GenerateConcepts(t.Context(), clusters)
	require.NoError(t, err)
	require.Len(t, opps, 2)

	assert.Equal(t, "invoice automation", opps[0].SearchKeyword)
	assert.Equal(t, "Auto-chase overdue invoices for freelancers", opps[0].AppIdea)
	// 30 reddit upvotes normalize to 30 and replace the model's 70.
	assert.Equal(t, 30, opps[0].ViralityScore)
	assert.Equal(t, 80, opps[0].BuildabilityScore)
	assert.Equal(t, clusters[0].Members, opps[0].PainPoints)
	assert.NotEmpty(t, opps[0].ID)
}

func TestGenerateConceptsDefaultsOnMissingLine(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue("1 | only keyword | only idea | 40 | 40\n")

	scorer := New(mock, testLogger())

	clusters := []*domain.PainPointCluster{
		{Representative: "first problem", EngagementBySource: map[domain.SourceKind]int{}},
		{Representative: "second problem, skipped by the model", EngagementBySource: map[domain.SourceKind]int{}},
	}

	opps, err := scorer.GenerateConcepts(t.Context(), clusters)
	require.NoError(t, err)
	require.Len(t, opps, 2)

	assert.Equal(t, "second problem, skipped by the model", opps[1].SearchKeyword)
	assert.Equal(t, defaultComponentScore, opps[1].ViralityScore)
	assert.Equal(t, defaultComponentScore, opps[1].BuildabilityScore)
}

func TestGenerateConceptsEngagementOverridesVirality(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		engagement map[domain.SourceKind]int
		want       int
	}{
		{
			name:       "engagement above model estimate",
			line:       "1 | kw | idea | 20 | 50\n",
			engagement: map[domain.SourceKind]int{domain.SourceReddit: 90},
			want:       90,
		},
		{
			name:       "engagement below model estimate still wins",
			line:       "1 | kw | idea | 80 | 50\n",
			engagement: map[domain.SourceKind]int{domain.SourceReddit: 0},
			want:       minComponentScore,
		},
		{
			name:       "no engagement data keeps the model estimate",
			line:       "1 | kw | idea | 80 | 50\n",
			engagement: map[domain.SourceKind]int{},
			want:       80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMock()
			mock.Enqueue(tt.line)

			scorer := New(mock, testLogger())

			clusters := []*domain.PainPointCluster{
				{Representative: "p", EngagementBySource: tt.engagement},
			}

			opps, err := scorer.GenerateConcepts(t.Context(), clusters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opps[0].ViralityScore)
		})
	}
}

func TestNormalizeEngagement(t *testing.T) {
	tests := []struct {
		name       string
		source     domain.SourceKind
		engagement int
		want       int
	}{
		{name: "zero floors at 10", source: domain.SourceReddit, engagement: 0, want: 10},
		{name: "negative floors at 10", source: domain.SourceTwitter, engagement: -5, want: 10},
		{name: "tiny floors at 10", source: domain.SourceReddit, engagement: 3, want: 10},
		{name: "reddit saturation", source: domain.SourceReddit, engagement: 100, want: 100},
		{name: "reddit above saturation caps", source: domain.SourceReddit, engagement: 5000, want: 100},
		{name: "youtube saturates at 50", source: domain.SourceYouTube, engagement: 25, want: 50},
		{name: "producthunt saturates at 200", source: domain.SourceProductHunt, engagement: 100, want: 50},
		{name: "unknown source uses 100", source: domain.SourceTrends, engagement: 50, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEngagement(tt.source, tt.engagement))
		})
	}
}

func TestNormalizeEngagementMonotonic(t *testing.T) {
	prev := 0
	for engagement := 0; engagement <= 300; engagement += 10 {
		score := NormalizeEngagement(domain.SourceReddit, engagement)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestCompositeScore(t *testing.T) {
	assert.Equal(t, 100, CompositeScore(100, 100, 100))
	assert.Equal(t, 0, CompositeScore(0, 0, 0))
	// 0.4*50 + 0.4*70 + 0.2*30 = 54
	assert.Equal(t, 54, CompositeScore(50, 70, 30))
	// 0.4*33 + 0.4*33 + 0.2*33 = 33 after rounding
	assert.Equal(t, 33, CompositeScore(33, 33, 33))
}

func TestFinalize(t *testing.T) {
	opp := &domain.AppOpportunity{ViralityScore: 80, BuildabilityScore: 60}
	trend := &domain.TrendValidation{Keyword: "kw", TrendScore: 70}

	Finalize(opp, trend)

	assert.Equal(t, 70, opp.DemandScore)
	assert.Equal(t, trend, opp.Trend)
	// 0.4*70 + 0.4*80 + 0.2*60 = 72
	assert.Equal(t, 72, opp.OpportunityScore)
}
