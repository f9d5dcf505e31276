package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/core/domain"
)

const (
	youtubeBaseURL      = "https://www.googleapis.com/youtube/v3"
	youtubeMaxVideos    = 5
	youtubeLimiterBurst = 2
	youtubeMaxTextChars = 1000
)

// YouTubeClient fetches video comments via the Data API v3: one search call
// per query, then one commentThreads call per found video.
type YouTubeClient struct {
	baseURL    string
	apiKey     string
	maxVideos  int
	httpClient *http.Client
	limiter    *rate.Limiter
	counter    callCounter
	logger     *zerolog.Logger
}

// YouTubeConfig holds configuration for the YouTube client.
type YouTubeConfig struct {
	BaseURL   string
	APIKey    string
	MaxVideos int
	RateRPS   float64
	Timeout   time.Duration
}

func NewYouTubeClient(cfg YouTubeConfig, logger *zerolog.Logger) *YouTubeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = youtubeBaseURL
	}

	if cfg.MaxVideos <= 0 {
		cfg.MaxVideos = youtubeMaxVideos
	}

	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	return &YouTubeClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxVideos:  cfg.MaxVideos,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateRPS), youtubeLimiterBurst),
		logger:     logger,
	}
}

func (c *YouTubeClient) Name() domain.SourceKind {
	return domain.SourceYouTube
}

func (c *YouTubeClient) IsAvailable() bool {
	return c.apiKey != ""
}

func (c *YouTubeClient) Calls() int {
	return c.counter.Count()
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeCommentsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay   string `json:"textDisplay"`
					AuthorDisplay string `json:"authorDisplayName"`
					LikeCount     int    `json:"likeCount"`
					PublishedAt   string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchComments searches videos for the query and collects their top-level
// comments with like counts.
func (c *YouTubeClient) FetchComments(ctx context.Context, query string, perVideo int) ([]domain.NormalizedRecord, error) {
	if !c.IsAvailable() {
		return nil, ErrNotConfigured
	}

	videos, err := c.searchVideos(ctx, query)
	if err != nil {
		return nil, err
	}

	var records []domain.NormalizedRecord

	for videoID, meta := range videos {
		comments, err := c.fetchVideoComments(ctx, videoID, meta, query, perVideo)
		if err != nil {
			// One comment-disabled video must not sink the branch.
			c.logger.Debug().Err(err).Str("video_id", videoID).Msg("skipping video comments")
			continue
		}

		records = append(records, comments...)
	}

	c.logger.Debug().Str("query", query).Int("count", len(records)).Msg("fetched youtube comments")

	return records, nil
}

type videoMeta struct {
	title   string
	channel string
}

func (c *YouTubeClient) searchVideos(ctx context.Context, query string) (map[string]videoMeta, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("maxResults", fmt.Sprintf("%d", c.maxVideos))
	params.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var searchResp youtubeSearchResponse

	c.counter.inc()

	if err := getJSON(ctx, c.httpClient, string(domain.SourceYouTube), endpoint, nil, &searchResp); err != nil {
		return nil, err
	}

	videos := make(map[string]videoMeta, len(searchResp.Items))

	for _, item := range searchResp.Items {
		if item.ID.VideoID == "" {
			continue
		}

		videos[item.ID.VideoID] = videoMeta{title: item.Snippet.Title, channel: item.Snippet.ChannelTitle}
	}

	return videos, nil
}

func (c *YouTubeClient) fetchVideoComments(ctx context.Context, videoID string, meta videoMeta, query string, perVideo int) ([]domain.NormalizedRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("order", "relevance")
	params.Set("maxResults", fmt.Sprintf("%d", perVideo))
	params.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/commentThreads?%s", c.baseURL, params.Encode())

	var commentsResp youtubeCommentsResponse

	c.counter.inc()

	if err := getJSON(ctx, c.httpClient, string(domain.SourceYouTube), endpoint, nil, &commentsResp); err != nil {
		return nil, err
	}

	records := make([]domain.NormalizedRecord, 0, len(commentsResp.Items))

	for _, item := range commentsResp.Items {
		snippet := item.Snippet.TopLevelComment.Snippet

		createdAt, err := dateparse.ParseAny(snippet.PublishedAt)
		if err != nil {
			createdAt = time.Time{}
		}

		records = append(records, domain.NormalizedRecord{
			ID:         item.ID,
			Source:     domain.SourceYouTube,
			Title:      meta.title,
			Text:       truncate(snippet.TextDisplay, youtubeMaxTextChars),
			Engagement: snippet.LikeCount,
			Author:     snippet.AuthorDisplay,
			Permalink:  "https://www.youtube.com/watch?v=" + videoID,
			CreatedAt:  createdAt,
			Metadata:   map[string]string{"channel": meta.channel, "video_id": videoID, "query": query},
		})
	}

	return records, nil
}
