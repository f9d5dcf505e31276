package sources

import (
	"context"
	"fmt"

	"github.com/oppradar/oppradar/internal/core/domain"
)

// Collect runs every discovery query against the subreddit search. A query
// that fails is skipped; the branch only errors when nothing came back at all.
func (c *RedditClient) Collect(ctx context.Context, queries []string, limit int) ([]domain.NormalizedRecord, error) {
	return collectQueries(ctx, queries, func(ctx context.Context, query string) ([]domain.NormalizedRecord, error) {
		return c.FetchPosts(ctx, query, limit)
	})
}

// Collect runs every discovery query against recent tweet search.
func (c *TwitterClient) Collect(ctx context.Context, queries []string, limit int) ([]domain.NormalizedRecord, error) {
	return collectQueries(ctx, queries, func(ctx context.Context, query string) ([]domain.NormalizedRecord, error) {
		return c.SearchRecent(ctx, query, limit)
	})
}

// Collect gathers video comments for every discovery query.
func (c *YouTubeClient) Collect(ctx context.Context, queries []string, limit int) ([]domain.NormalizedRecord, error) {
	return collectQueries(ctx, queries, func(ctx context.Context, query string) ([]domain.NormalizedRecord, error) {
		return c.FetchComments(ctx, query, limit)
	})
}

// Collect fetches recent launches. The feed is not query-driven, so the
// queries only size the pull.
func (c *ProductHuntClient) Collect(ctx context.Context, queries []string, limit int) ([]domain.NormalizedRecord, error) {
	return c.FetchLaunches(ctx, limit*max(len(queries), 1))
}

func collectQueries(ctx context.Context, queries []string, fetch func(context.Context, string) ([]domain.NormalizedRecord, error)) ([]domain.NormalizedRecord, error) {
	var (
		records []domain.NormalizedRecord
		lastErr error
	)

	for _, query := range queries {
		batch, err := fetch(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}

		records = append(records, batch...)
	}

	if len(records) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all queries failed: %w", lastErr)
	}

	return records, nil
}
