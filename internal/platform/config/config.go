package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LLMAPIKeyMock selects the mock LLM/embedding providers for local runs.
const LLMAPIKeyMock = "mock"

var errNoSources = errors.New("no source clients configured and test mode disabled")

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// LLM / embeddings
	LLMAPIKey           string  `env:"LLM_API_KEY,required"`
	LLMModel            string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel      string  `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	LLMRateLimitRPS     float64 `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	LLMDailyTokenBudget int64   `env:"LLM_DAILY_TOKEN_BUDGET" envDefault:"0"`

	// Source clients
	RedditUserAgent   string        `env:"REDDIT_USER_AGENT" envDefault:"oppradar/1.0"`
	TwitterBearer     string        `env:"TWITTER_BEARER_TOKEN"`
	YouTubeAPIKey     string        `env:"YOUTUBE_API_KEY"`
	ProductHuntToken  string        `env:"PRODUCTHUNT_TOKEN"`
	SourceRateRPS     float64       `env:"SOURCE_RATE_LIMIT_RPS" envDefault:"1"`
	SourceHTTPTimeout time.Duration `env:"SOURCE_HTTP_TIMEOUT" envDefault:"15s"`

	// Trend validation
	SerpAPIKeyOne     string        `env:"SERPAPI_KEY_ONE"`
	SerpAPIKeyTwo     string        `env:"SERPAPI_KEY_TWO"`
	SerpMonthlyLimit  int           `env:"SERPAPI_MONTHLY_LIMIT" envDefault:"250"`
	TrendsHTTPTimeout time.Duration `env:"TRENDS_HTTP_TIMEOUT" envDefault:"20s"`
	TrendsWidgetDelay time.Duration `env:"TRENDS_WIDGET_DELAY" envDefault:"500ms"`

	// Discovery pipeline
	DiscoveryQueries     []string `env:"DISCOVERY_QUERIES" envSeparator:"," envDefault:"app that,wish there was,annoying,why is there no"`
	ItemsPerQuery        int      `env:"DISCOVERY_ITEMS_PER_QUERY" envDefault:"50"`
	MaxRecordsPerExtract int      `env:"DISCOVERY_MAX_RECORDS_PER_EXTRACT" envDefault:"120"`
	MaxCandidates        int      `env:"DISCOVERY_MAX_CANDIDATES" envDefault:"45"`
	TopOpportunities     int      `env:"DISCOVERY_TOP_N" envDefault:"20"`
	ClusterThreshold     float32  `env:"CLUSTER_SIMILARITY_THRESHOLD" envDefault:"0.82"`
	TestMode             bool     `env:"DISCOVERY_TEST_MODE" envDefault:"false"`

	// Scheduling
	DailyRunHour    int          `env:"DAILY_RUN_HOUR" envDefault:"6"`
	WeeklyBriefDay  time.Weekday `env:"WEEKLY_BRIEF_DAY" envDefault:"6"`
	WeeklyBriefHour int          `env:"WEEKLY_BRIEF_HOUR" envDefault:"8"`
}

// Load reads the environment (plus an optional .env file) into a Config.
// Missing required keys fail here, before any pipeline work starts.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.TestMode {
		return nil
	}

	// At least one real source must be reachable; Reddit needs only a
	// user agent, so a non-empty agent counts.
	if c.RedditUserAgent == "" && c.TwitterBearer == "" && c.YouTubeAPIKey == "" && c.ProductHuntToken == "" {
		return errNoSources
	}

	return nil
}

// TestModeScale returns the fan-out scale for the current mode. Test mode
// shrinks cardinality without changing control flow.
func (c *Config) TestModeScale() (queries []string, itemsPerQuery int) {
	if !c.TestMode {
		return c.DiscoveryQueries, c.ItemsPerQuery
	}

	queries = c.DiscoveryQueries
	if len(queries) > 1 {
		queries = queries[:1]
	}

	itemsPerQuery = c.ItemsPerQuery
	if itemsPerQuery > 5 {
		itemsPerQuery = 5
	}

	return queries, itemsPerQuery
}
