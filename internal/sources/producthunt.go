package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/platform/observability"
)

const (
	productHuntFeedURL    = "https://www.producthunt.com/feed"
	productHuntGraphQLURL = "https://api.producthunt.com/v2/api/graphql"
	productHuntBurst      = 1
)

// ProductHuntClient fetches launch listings. The public Atom feed needs no
// credentials; when an API token is present, votes come from the GraphQL API
// instead, which carries real engagement numbers.
type ProductHuntClient struct {
	feedURL    string
	graphqlURL string
	token      string
	parser     *gofeed.Parser
	httpClient *http.Client
	limiter    *rate.Limiter
	counter    callCounter
	logger     *zerolog.Logger
}

// ProductHuntConfig holds configuration for the Product Hunt client.
type ProductHuntConfig struct {
	FeedURL    string
	GraphQLURL string
	Token      string
	RateRPS    float64
	Timeout    time.Duration
}

func NewProductHuntClient(cfg ProductHuntConfig, logger *zerolog.Logger) *ProductHuntClient {
	if cfg.FeedURL == "" {
		cfg.FeedURL = productHuntFeedURL
	}

	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = productHuntGraphQLURL
	}

	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	parser := gofeed.NewParser()
	parser.Client = httpClient

	return &ProductHuntClient{
		feedURL:    cfg.FeedURL,
		graphqlURL: cfg.GraphQLURL,
		token:      cfg.Token,
		parser:     parser,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateRPS), productHuntBurst),
		logger:     logger,
	}
}

func (c *ProductHuntClient) Name() domain.SourceKind {
	return domain.SourceProductHunt
}

// IsAvailable is always true: the feed endpoint is public.
func (c *ProductHuntClient) IsAvailable() bool {
	return true
}

func (c *ProductHuntClient) Calls() int {
	return c.counter.Count()
}

// FetchLaunches returns recent launch listings, newest first.
func (c *ProductHuntClient) FetchLaunches(ctx context.Context, limit int) ([]domain.NormalizedRecord, error) {
	if c.token != "" {
		records, err := c.fetchGraphQL(ctx, limit)
		if err == nil {
			return records, nil
		}

		c.logger.Warn().Err(err).Msg("producthunt API failed, falling back to feed")
	}

	return c.fetchFeed(ctx, limit)
}

func (c *ProductHuntClient) fetchFeed(ctx context.Context, limit int) ([]domain.NormalizedRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.counter.inc()

	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "error").Inc()

		return nil, fmt.Errorf("parse producthunt feed: %w", err)
	}

	observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "success").Inc()

	records := make([]domain.NormalizedRecord, 0, limit)

	for _, item := range feed.Items {
		if len(records) >= limit {
			break
		}

		createdAt := time.Time{}
		if item.PublishedParsed != nil {
			createdAt = *item.PublishedParsed
		} else if item.Published != "" {
			if parsed, parseErr := dateparse.ParseAny(item.Published); parseErr == nil {
				createdAt = parsed
			}
		}

		records = append(records, domain.NormalizedRecord{
			ID:         item.GUID,
			Source:     domain.SourceProductHunt,
			Title:      item.Title,
			Text:       item.Title + ": " + item.Description,
			Engagement: 0, // the feed carries no vote counts
			Permalink:  item.Link,
			CreatedAt:  createdAt,
			Metadata:   map[string]string{"via": "feed"},
		})
	}

	return records, nil
}

type phGraphQLResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					ID            string `json:"id"`
					Name          string `json:"name"`
					Tagline       string `json:"tagline"`
					Description   string `json:"description"`
					VotesCount    int    `json:"votesCount"`
					CommentsCount int    `json:"commentsCount"`
					URL           string `json:"url"`
					CreatedAt     string `json:"createdAt"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
}

func (c *ProductHuntClient) fetchGraphQL(ctx context.Context, limit int) ([]domain.NormalizedRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := fmt.Sprintf(`{"query":"{ posts(first: %d, order: VOTES) { edges { node { id name tagline description votesCount commentsCount url createdAt } } } }"}`, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewBufferString(query))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.counter.inc()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "error").Inc()

		return nil, fmt.Errorf("producthunt request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "error").Inc()

		return nil, fmt.Errorf("%w: producthunt returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var gqlResp phGraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "error").Inc()

		return nil, fmt.Errorf("producthunt decode: %w", err)
	}

	observability.SourceRequests.WithLabelValues(string(domain.SourceProductHunt), "success").Inc()

	records := make([]domain.NormalizedRecord, 0, len(gqlResp.Data.Posts.Edges))

	for _, edge := range gqlResp.Data.Posts.Edges {
		node := edge.Node

		createdAt := time.Time{}
		if node.CreatedAt != "" {
			if parsed, parseErr := dateparse.ParseAny(node.CreatedAt); parseErr == nil {
				createdAt = parsed
			}
		}

		records = append(records, domain.NormalizedRecord{
			ID:         node.ID,
			Source:     domain.SourceProductHunt,
			Title:      node.Name,
			Text:       node.Name + ": " + node.Tagline + ". " + node.Description,
			Engagement: node.VotesCount,
			Permalink:  node.URL,
			CreatedAt:  createdAt,
			Metadata:   map[string]string{"via": "graphql", "comments": fmt.Sprintf("%d", node.CommentsCount)},
		})
	}

	return records, nil
}
