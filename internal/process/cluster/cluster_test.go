package cluster

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/embeddings"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func point(problem string, source domain.SourceKind, engagement int) *domain.PainPoint {
	return &domain.PainPoint{
		ID:         problem,
		Problem:    problem,
		Source:     source,
		Engagement: engagement,
	}
}

func TestClusterMergesIdenticalProblems(t *testing.T) {
	engine := NewEngine(embeddings.NewMock(), DefaultThreshold, testLogger())

	// Mock embeddings are text hashes, so identical texts cluster and
	// distinct texts do not.
	points := []*domain.PainPoint{
		point("manual invoicing wastes hours", domain.SourceReddit, 150),
		point("manual invoicing wastes hours", domain.SourceTwitter, 40),
		point("manual invoicing wastes hours", domain.SourceReddit, 10),
		point("no tool syncs bank feeds with budgets", domain.SourceYouTube, 17),
	}

	clusters, err := engine.Cluster(t.Context(), points)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	// Sorted by total engagement.
	assert.Equal(t, 200, clusters[0].TotalEngagement)
	assert.Len(t, clusters[0].Members, 3)
	assert.Equal(t, "manual invoicing wastes hours", clusters[0].Representative)
	assert.Equal(t, 2, clusters[0].SourceCount())
	assert.Equal(t, 160, clusters[0].EngagementBySource[domain.SourceReddit])

	assert.Equal(t, 17, clusters[1].TotalEngagement)
	assert.Equal(t, 1, clusters[1].SourceCount())
}

func TestClusterRepresentativeIsHighestEngagement(t *testing.T) {
	engine := NewEngine(embeddings.NewMock(), DefaultThreshold, testLogger())

	points := []*domain.PainPoint{
		point("same problem", domain.SourceReddit, 5),
		point("same problem", domain.SourceTwitter, 500),
	}

	clusters, err := engine.Cluster(t.Context(), points)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "same problem", clusters[0].Representative)
	assert.Equal(t, 505, clusters[0].TotalEngagement)
}

func TestClusterSingletonFallbackOnEmbedError(t *testing.T) {
	mock := embeddings.NewMock()
	mock.Err = errors.New("quota exceeded")

	engine := NewEngine(mock, DefaultThreshold, testLogger())

	points := []*domain.PainPoint{
		point("problem a", domain.SourceReddit, 10),
		point("problem a", domain.SourceReddit, 20),
		point("problem b", domain.SourceYouTube, 5),
	}

	clusters, err := engine.Cluster(t.Context(), points)
	require.NoError(t, err)
	require.Len(t, clusters, 3)

	for _, cl := range clusters {
		assert.Len(t, cl.Members, 1)
		assert.Equal(t, 1, cl.SourceCount())
	}
}

func TestClusterEmptyInput(t *testing.T) {
	engine := NewEngine(embeddings.NewMock(), DefaultThreshold, testLogger())

	clusters, err := engine.Cluster(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
