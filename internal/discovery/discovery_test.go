package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/embeddings"
	"github.com/oppradar/oppradar/internal/core/llm"
	"github.com/oppradar/oppradar/internal/process/cluster"
	"github.com/oppradar/oppradar/internal/process/extract"
	"github.com/oppradar/oppradar/internal/process/filter"
	"github.com/oppradar/oppradar/internal/process/score"
	"github.com/oppradar/oppradar/internal/trends"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type fakeCollector struct {
	kind      domain.SourceKind
	available bool
	records   []domain.NormalizedRecord
	err       error
	calls     int
}

func (c *fakeCollector) Name() domain.SourceKind { return c.kind }
func (c *fakeCollector) IsAvailable() bool       { return c.available }
func (c *fakeCollector) Calls() int              { return c.calls }

func (c *fakeCollector) Collect(context.Context, []string, int) ([]domain.NormalizedRecord, error) {
	c.calls++
	return c.records, c.err
}

type fakeTrendProvider struct{}

func (fakeTrendProvider) Name() string { return "fake" }

func (fakeTrendProvider) Fetch(context.Context, string) (*trends.Signal, error) {
	return &trends.Signal{Interest: []int{60, 60, 60, 60, 60, 60, 60}}, nil
}

// routeLLM answers each pipeline stage by prompt shape, since parallel
// branches make queue order nondeterministic.
func routeLLM() *llm.Mock {
	mock := llm.NewMock()
	mock.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "mining user complaints"):
			return "INDEX: 1\nQUOTE: chasing invoices again\nPROBLEM: Freelancers chase overdue invoices by hand.", nil
		case strings.Contains(prompt, "app concept"):
			return "1 | invoice chaser | Auto-chase overdue invoices | 60 | 70", nil
		default:
			return "", errors.New("unexpected prompt")
		}
	}

	return mock
}

func newTestService(collectors []Collector, mock *llm.Mock) *Service {
	logger := testLogger()

	return NewService(
		collectors,
		extract.New(mock, 0, logger),
		cluster.NewEngine(embeddings.NewMock(), cluster.DefaultThreshold, logger),
		filter.New(mock, 45, logger),
		score.New(mock, logger),
		trends.NewValidator(logger, fakeTrendProvider{}),
		mock,
		Options{Queries: []string{"app idea"}, PerQueryLimit: 10, TopN: 20},
		logger,
	)
}

func TestRunFullPipeline(t *testing.T) {
	collectors := []Collector{
		&fakeCollector{kind: domain.SourceReddit, available: true, records: []domain.NormalizedRecord{
			{ID: "r1", Source: domain.SourceReddit, Text: "chasing invoices again", Engagement: 90},
		}},
		&fakeCollector{kind: domain.SourceTwitter, available: false},
	}

	service := newTestService(collectors, routeLLM())

	report, err := service.Run(t.Context(), domain.BriefingDaily)
	require.NoError(t, err)

	require.Len(t, report.TopOpportunities, 1)
	top := report.TopOpportunities[0]

	assert.Equal(t, "Auto-chase overdue invoices", top.AppIdea)
	assert.Equal(t, "invoice chaser", top.SearchKeyword)
	require.NotNil(t, top.Trend)
	assert.Equal(t, "fake", top.Trend.Provider)
	assert.Equal(t, 60, top.Trend.InterestScore)
	assert.Positive(t, top.OpportunityScore)

	assert.Equal(t, 1, report.TotalDataPoints)
	assert.Equal(t, 1, report.PainPointsExtracted)
	assert.Contains(t, report.Notes, "twitter: not configured, skipped")
	assert.Equal(t, 1, report.ProviderCalls["reddit"])
}

func TestRunAllSourcesDownYieldsEmptyBriefing(t *testing.T) {
	collectors := []Collector{
		&fakeCollector{kind: domain.SourceReddit, available: true, err: errors.New("timeout")},
		&fakeCollector{kind: domain.SourceYouTube, available: false},
	}

	service := newTestService(collectors, routeLLM())

	report, err := service.Run(t.Context(), domain.BriefingDaily)
	require.NoError(t, err)

	assert.Empty(t, report.TopOpportunities)
	assert.Zero(t, report.TotalDataPoints)
	assert.Len(t, report.Notes, 2)
}

func TestRunConceptGenerationFailureDegrades(t *testing.T) {
	mock := llm.NewMock()
	mock.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "mining user complaints") {
			return "INDEX: 1\nQUOTE: q\nPROBLEM: A real problem worth scoring.", nil
		}

		return "", errors.New("model overloaded")
	}

	collectors := []Collector{
		&fakeCollector{kind: domain.SourceReddit, available: true, records: []domain.NormalizedRecord{
			{ID: "r1", Source: domain.SourceReddit, Text: "text", Engagement: 10},
		}},
	}

	service := newTestService(collectors, mock)

	report, err := service.Run(t.Context(), domain.BriefingDaily)
	require.NoError(t, err)

	assert.Empty(t, report.TopOpportunities)
	assert.Equal(t, 1, report.PainPointsExtracted)

	found := false
	for _, note := range report.Notes {
		if strings.Contains(note, "concept generation failed") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMergeBranchesDeterministicOrder(t *testing.T) {
	results := map[domain.SourceKind]*branchResult{
		domain.SourceYouTube: {
			source:  domain.SourceYouTube,
			records: []domain.NormalizedRecord{{ID: "y1"}},
			calls:   domain.UsageCounters{"youtube": 2},
		},
		domain.SourceReddit: {
			source:  domain.SourceReddit,
			records: []domain.NormalizedRecord{{ID: "r1"}, {ID: "r2"}},
			calls:   domain.UsageCounters{"reddit": 1},
			notes:   []string{"reddit: partial"},
		},
	}

	state := mergeBranches(results)

	// Declared collection order, not map iteration order.
	require.Len(t, state.Records, 3)
	assert.Equal(t, "r1", state.Records[0].ID)
	assert.Equal(t, "r2", state.Records[1].ID)
	assert.Equal(t, "y1", state.Records[2].ID)

	assert.Equal(t, 1, state.ProviderCalls["reddit"])
	assert.Equal(t, 2, state.ProviderCalls["youtube"])
	assert.Equal(t, []string{"reddit: partial"}, state.Notes)
}
