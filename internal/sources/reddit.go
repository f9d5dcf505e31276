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
	redditBaseURL      = "https://www.reddit.com"
	redditMaxTextChars = 2000
	redditLimiterBurst = 2
)

// RedditClient fetches forum posts from the public Reddit search API.
type RedditClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	counter    callCounter
	logger     *zerolog.Logger
}

// RedditConfig holds configuration for the Reddit client.
type RedditConfig struct {
	BaseURL   string
	UserAgent string
	RateRPS   float64
	Timeout   time.Duration
}

func NewRedditClient(cfg RedditConfig, logger *zerolog.Logger) *RedditClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = redditBaseURL
	}

	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	return &RedditClient{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateRPS), redditLimiterBurst),
		logger:     logger,
	}
}

// Name returns the source kind this client feeds.
func (c *RedditClient) Name() domain.SourceKind {
	return domain.SourceReddit
}

// IsAvailable reports whether the client can make requests.
func (c *RedditClient) IsAvailable() bool {
	return c.userAgent != ""
}

// Calls returns the number of external calls made so far.
func (c *RedditClient) Calls() int {
	return c.counter.Count()
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchPosts searches recent posts matching the query, ordered by score.
func (c *RedditClient) FetchPosts(ctx context.Context, query string, limit int) ([]domain.NormalizedRecord, error) {
	if !c.IsAvailable() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("sort", "top")
	params.Set("t", "week")

	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	var listing redditListing

	c.counter.inc()

	if err := getJSON(ctx, c.httpClient, string(domain.SourceReddit), endpoint, map[string]string{"User-Agent": c.userAgent}, &listing); err != nil {
		return nil, err
	}

	records := make([]domain.NormalizedRecord, 0, len(listing.Data.Children))

	for _, child := range listing.Data.Children {
		post := child.Data

		text := post.SelfText
		if text == "" {
			text = post.Title
		}

		records = append(records, domain.NormalizedRecord{
			ID:         post.ID,
			Source:     domain.SourceReddit,
			Title:      post.Title,
			Text:       truncate(text, redditMaxTextChars),
			Engagement: post.Score + post.NumComments,
			Author:     post.Author,
			Permalink:  redditBaseURL + post.Permalink,
			CreatedAt:  time.Unix(int64(post.CreatedUTC), 0).UTC(),
			Metadata:   map[string]string{"subreddit": post.Subreddit, "query": query},
		})
	}

	c.logger.Debug().Str("query", query).Int("count", len(records)).Msg("fetched reddit posts")

	return records, nil
}
