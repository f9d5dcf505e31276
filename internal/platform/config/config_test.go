package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", LLMAPIKeyMock)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 250, cfg.SerpMonthlyLimit)
	assert.Equal(t, 45, cfg.MaxCandidates)
	assert.Equal(t, 20, cfg.TopOpportunities)
	assert.InDelta(t, 0.82, float64(cfg.ClusterThreshold), 1e-6)
	assert.Len(t, cfg.DiscoveryQueries, 4)
}

func TestValidateRejectsNoSources(t *testing.T) {
	t.Setenv("LLM_API_KEY", LLMAPIKeyMock)
	t.Setenv("REDDIT_USER_AGENT", "")

	_, err := Load()
	assert.ErrorIs(t, err, errNoSources)
}

func TestValidateTestModeSkipsSourceCheck(t *testing.T) {
	t.Setenv("LLM_API_KEY", LLMAPIKeyMock)
	t.Setenv("REDDIT_USER_AGENT", "")
	t.Setenv("DISCOVERY_TEST_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TestMode)
}

func TestTestModeScale(t *testing.T) {
	cfg := &Config{
		TestMode:         true,
		DiscoveryQueries: []string{"a", "b", "c"},
		ItemsPerQuery:    50,
	}

	queries, items := cfg.TestModeScale()
	assert.Equal(t, []string{"a"}, queries)
	assert.Equal(t, 5, items)

	cfg.TestMode = false
	queries, items = cfg.TestModeScale()
	assert.Len(t, queries, 3)
	assert.Equal(t, 50, items)
}
