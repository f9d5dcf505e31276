package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/core/domain"
)

const (
	twitterBaseURL      = "https://api.twitter.com/2"
	twitterMinResults   = 10
	twitterMaxResults   = 100
	twitterLimiterBurst = 1
)

// TwitterClient fetches short posts from the v2 recent search endpoint.
type TwitterClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	counter     callCounter
	logger      *zerolog.Logger
}

// TwitterConfig holds configuration for the Twitter client.
type TwitterConfig struct {
	BaseURL     string
	BearerToken string
	RateRPS     float64
	Timeout     time.Duration
}

func NewTwitterClient(cfg TwitterConfig, logger *zerolog.Logger) *TwitterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twitterBaseURL
	}

	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	return &TwitterClient{
		baseURL:     cfg.BaseURL,
		bearerToken: cfg.BearerToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateRPS), twitterLimiterBurst),
		logger:      logger,
	}
}

func (c *TwitterClient) Name() domain.SourceKind {
	return domain.SourceTwitter
}

func (c *TwitterClient) IsAvailable() bool {
	return c.bearerToken != ""
}

func (c *TwitterClient) Calls() int {
	return c.counter.Count()
}

type tweetSearchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			LikeCount    int `json:"like_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// SearchRecent fetches recent tweets matching the query. Retweets are
// excluded so engagement counts belong to the original complaint.
func (c *TwitterClient) SearchRecent(ctx context.Context, query string, limit int) ([]domain.NormalizedRecord, error) {
	if !c.IsAvailable() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if limit < twitterMinResults {
		limit = twitterMinResults
	}

	if limit > twitterMaxResults {
		limit = twitterMaxResults
	}

	params := url.Values{}
	params.Set("query", query+" -is:retweet lang:en")
	params.Set("max_results", fmt.Sprintf("%d", limit))
	params.Set("tweet.fields", "public_metrics,created_at,author_id")

	endpoint := fmt.Sprintf("%s/tweets/search/recent?%s", c.baseURL, params.Encode())

	var searchResp tweetSearchResponse

	c.counter.inc()

	headers := map[string]string{"Authorization": "Bearer " + c.bearerToken}
	if err := getJSON(ctx, c.httpClient, string(domain.SourceTwitter), endpoint, headers, &searchResp); err != nil {
		return nil, err
	}

	records := make([]domain.NormalizedRecord, 0, len(searchResp.Data))

	for _, tweet := range searchResp.Data {
		engagement := tweet.PublicMetrics.LikeCount + tweet.PublicMetrics.RetweetCount + tweet.PublicMetrics.QuoteCount

		records = append(records, domain.NormalizedRecord{
			ID:         tweet.ID,
			Source:     domain.SourceTwitter,
			Text:       tweet.Text,
			Engagement: engagement,
			Author:     tweet.AuthorID,
			Permalink:  "https://twitter.com/i/status/" + tweet.ID,
			CreatedAt:  tweet.CreatedAt,
			Metadata:   map[string]string{"query": query},
		})
	}

	c.logger.Debug().Str("query", query).Int("count", len(records)).Msg("fetched tweets")

	return records, nil
}
