package filter

import (
	"context"
	"errors"
	"fmt"
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

func testClusters(n int) []*domain.PainPointCluster {
	clusters := make([]*domain.PainPointCluster, n)
	for i := range clusters {
		clusters[i] = &domain.PainPointCluster{
			Representative:     fmt.Sprintf("problem %d", i+1),
			TotalEngagement:    (n - i) * 10,
			EngagementBySource: map[domain.SourceKind]int{domain.SourceReddit: (n - i) * 10},
		}
	}

	return clusters
}

func TestSelectParsesIndexLines(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue("3 | keeps invoicing pain\n1 | budgeting sync gap\nnot a line\n99 | out of range\n3 | duplicate\nabc | bad index\n")

	f := New(mock, 2, testLogger())

	selected := f.Select(t.Context(), testClusters(5))
	require.Len(t, selected, 2)
	assert.Equal(t, "problem 3", selected[0].Representative)
	assert.Equal(t, "problem 1", selected[1].Representative)
}

func TestSelectPassThroughWhenUnderLimit(t *testing.T) {
	mock := llm.NewMock()
	f := New(mock, 10, testLogger())

	clusters := testClusters(4)
	selected := f.Select(t.Context(), clusters)

	assert.Equal(t, clusters, selected)
	assert.Empty(t, mock.Prompts, "no LLM call when already under the limit")
}

func TestSelectFallbackOnLLMError(t *testing.T) {
	mock := llm.NewMock()
	mock.CompleteFunc = func(context.Context, string) (string, error) {
		return "", errors.New("circuit open")
	}

	f := New(mock, 3, testLogger())

	selected := f.Select(t.Context(), testClusters(6))
	require.Len(t, selected, 3)
	// Highest-engagement clusters survive.
	assert.Equal(t, "problem 1", selected[0].Representative)
	assert.Equal(t, "problem 3", selected[2].Representative)
}

func TestSelectFallbackOnUnusableResponse(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue("I could not evaluate these problems.")

	f := New(mock, 2, testLogger())

	selected := f.Select(t.Context(), testClusters(4))
	require.Len(t, selected, 2)
	assert.Equal(t, "problem 1", selected[0].Representative)
}

func TestSelectCapsAtMax(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue("1 | a\n2 | b\n3 | c\n4 | d\n")

	f := New(mock, 2, testLogger())

	selected := f.Select(t.Context(), testClusters(5))
	assert.Len(t, selected, 2)
}
