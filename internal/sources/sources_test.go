package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppradar/oppradar/internal/core/domain"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestRedditFetchPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "oppradar-test", r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"id":"abc","title":"I hate manual invoicing","selftext":"every month I waste hours","subreddit":"smallbusiness","author":"u1","score":120,"num_comments":30,"permalink":"/r/smallbusiness/abc","created_utc":1700000000}},
			{"data":{"id":"def","title":"Title only post","selftext":"","subreddit":"startups","author":"u2","score":5,"num_comments":1,"permalink":"/r/startups/def","created_utc":1700000100}}
		]}}`))
	}))
	defer srv.Close()

	client := NewRedditClient(RedditConfig{BaseURL: srv.URL, UserAgent: "oppradar-test", RateRPS: 100}, testLogger())

	records, err := client.FetchPosts(t.Context(), "invoicing", 25)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.SourceReddit, records[0].Source)
	assert.Equal(t, 150, records[0].Engagement)
	assert.Equal(t, "every month I waste hours", records[0].Text)
	assert.Equal(t, "smallbusiness", records[0].Metadata["subreddit"])

	// Posts without a body fall back to the title.
	assert.Equal(t, "Title only post", records[1].Text)
	assert.Equal(t, 1, client.Calls())
}

func TestRedditUnavailableWithoutUserAgent(t *testing.T) {
	client := NewRedditClient(RedditConfig{UserAgent: ""}, testLogger())

	_, err := client.FetchPosts(t.Context(), "anything", 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, client.Calls())
}

func TestTwitterSearchRecent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"data":[
			{"id":"1","text":"wish there was an app for this","author_id":"a1","created_at":"2026-08-20T10:00:00Z","public_metrics":{"retweet_count":3,"reply_count":2,"like_count":40,"quote_count":1}}
		]}`))
	}))
	defer srv.Close()

	client := NewTwitterClient(TwitterConfig{BaseURL: srv.URL, BearerToken: "token123", RateRPS: 100}, testLogger())

	records, err := client.SearchRecent(t.Context(), "wish there was", 20)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, domain.SourceTwitter, records[0].Source)
	assert.Equal(t, 44, records[0].Engagement) // likes + retweets + quotes
	assert.Equal(t, 1, client.Calls())
}

func TestTwitterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewTwitterClient(TwitterConfig{BaseURL: srv.URL, BearerToken: "t", RateRPS: 100}, testLogger())

	_, err := client.SearchRecent(t.Context(), "q", 20)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestYouTubeFetchComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"v1"},"snippet":{"title":"Budgeting apps review","channelTitle":"FinTube"}}]}`))
		case "/commentThreads":
			assert.Equal(t, "v1", r.URL.Query().Get("videoId"))
			_, _ = w.Write([]byte(`{"items":[{"id":"c1","snippet":{"topLevelComment":{"snippet":{"textDisplay":"none of these sync with my bank","authorDisplayName":"viewer","likeCount":17,"publishedAt":"2026-08-19T08:00:00Z"}}}}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewYouTubeClient(YouTubeConfig{BaseURL: srv.URL, APIKey: "key", RateRPS: 100}, testLogger())

	records, err := client.FetchComments(t.Context(), "budgeting app", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, domain.SourceYouTube, records[0].Source)
	assert.Equal(t, 17, records[0].Engagement)
	assert.Equal(t, "FinTube", records[0].Metadata["channel"])
	assert.Equal(t, 2, client.Calls()) // search + commentThreads
}

func TestProductHuntFeedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Product Hunt</title>
  <entry>
    <id>tag:ph,1</id>
    <title>InboxZeroer</title>
    <link href="https://www.producthunt.com/posts/inboxzeroer"/>
    <published>2026-08-20T00:00:00Z</published>
    <content type="html">Clears your inbox automatically</content>
  </entry>
</feed>`))
	}))
	defer srv.Close()

	client := NewProductHuntClient(ProductHuntConfig{FeedURL: srv.URL, RateRPS: 100}, testLogger())

	records, err := client.FetchLaunches(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, domain.SourceProductHunt, records[0].Source)
	assert.Equal(t, "InboxZeroer", records[0].Title)
	assert.Equal(t, 0, records[0].Engagement)
	assert.True(t, client.IsAvailable())
}
