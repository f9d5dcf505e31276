package trends

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeseriesBody = `{"interest_over_time":{"timeline_data":[
	{"values":[{"extracted_value":42}]},
	{"values":[{"extracted_value":55}]}
]}}`

const relatedBody = `{"related_queries":{
	"rising":[{"query":"invoice chaser app"}],
	"top":[{"query":"invoice software"}]
}}`

func serpHandler(t *testing.T, perKey map[string]int) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		perKey[key]++

		if key == "rejected-key" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		switch r.URL.Query().Get("data_type") {
		case "TIMESERIES":
			_, _ = w.Write([]byte(timeseriesBody))
		case "RELATED_QUERIES":
			_, _ = w.Write([]byte(relatedBody))
		default:
			t.Fatalf("unexpected data_type %q", r.URL.Query().Get("data_type"))
		}
	}
}

func TestSerpAPIFetch(t *testing.T) {
	perKey := map[string]int{}
	srv := httptest.NewServer(serpHandler(t, perKey))
	defer srv.Close()

	provider := NewSerpAPIProvider(SerpAPIConfig{
		BaseURL:   srv.URL,
		APIKeyOne: "good-key",
		RateRPS:   100,
	}, NewMemoryQuotaStore(), testLogger())

	signal, err := provider.Fetch(t.Context(), "invoice chaser")
	require.NoError(t, err)

	assert.Equal(t, []int{42, 55}, signal.Interest)
	assert.Equal(t, []string{"invoice chaser app"}, signal.Rising)
	assert.Equal(t, []string{"invoice software"}, signal.Top)
	assert.Equal(t, 2, perKey["good-key"], "timeseries plus related queries")
}

func TestSerpAPIKeyRotationOn429(t *testing.T) {
	perKey := map[string]int{}
	srv := httptest.NewServer(serpHandler(t, perKey))
	defer srv.Close()

	quota := NewMemoryQuotaStore()
	provider := NewSerpAPIProvider(SerpAPIConfig{
		BaseURL:      srv.URL,
		APIKeyOne:    "rejected-key",
		APIKeyTwo:    "good-key",
		MonthlyLimit: 250,
		RateRPS:      100,
	}, quota, testLogger())

	signal, err := provider.Fetch(t.Context(), "kw")
	require.NoError(t, err)
	assert.NotEmpty(t, signal.Interest)

	// The rejected key is pinned at its limit for the rest of the month and
	// the second key served every later request.
	month := MonthKey(time.Now())

	count, err := quota.Count(t.Context(), "serpapi_key_1", month)
	require.NoError(t, err)
	assert.Equal(t, 250, count)

	assert.Equal(t, 1, perKey["rejected-key"])
	assert.Equal(t, 2, perKey["good-key"])
}

func TestSerpAPIQuotaRotatesToSecondKey(t *testing.T) {
	perKey := map[string]int{}
	srv := httptest.NewServer(serpHandler(t, perKey))
	defer srv.Close()

	quota := NewMemoryQuotaStore()
	month := MonthKey(time.Now())
	require.NoError(t, quota.Set(t.Context(), "serpapi_key_1", month, 250))

	provider := NewSerpAPIProvider(SerpAPIConfig{
		BaseURL:      srv.URL,
		APIKeyOne:    "first-key",
		APIKeyTwo:    "good-key",
		MonthlyLimit: 250,
		RateRPS:      100,
	}, quota, testLogger())

	_, err := provider.Fetch(t.Context(), "kw")
	require.NoError(t, err)

	assert.Zero(t, perKey["first-key"], "exhausted key must not be called")
	assert.Equal(t, 2, perKey["good-key"])
}

func TestSerpAPIAllKeysExhausted(t *testing.T) {
	perKey := map[string]int{}
	srv := httptest.NewServer(serpHandler(t, perKey))
	defer srv.Close()

	quota := NewMemoryQuotaStore()
	month := MonthKey(time.Now())
	require.NoError(t, quota.Set(t.Context(), "serpapi_key_1", month, 250))
	require.NoError(t, quota.Set(t.Context(), "serpapi_key_2", month, 250))

	provider := NewSerpAPIProvider(SerpAPIConfig{
		BaseURL:      srv.URL,
		APIKeyOne:    "k1",
		APIKeyTwo:    "k2",
		MonthlyLimit: 250,
		RateRPS:      100,
	}, quota, testLogger())

	_, err := provider.Fetch(t.Context(), "kw")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Empty(t, perKey)
}

func TestWidgetProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trends/api/explore":
			_, _ = w.Write([]byte(")]}'\n{\"widgets\":[{\"id\":\"TIMESERIES\",\"token\":\"tok123\",\"request\":{\"time\":\"today 3-m\"}}]}"))
		case "/trends/api/widgetdata/multiline":
			assert.Equal(t, "tok123", r.URL.Query().Get("token"))
			_, _ = w.Write([]byte(")]}'\n{\"default\":{\"timelineData\":[{\"value\":[30]},{\"value\":[70]}]}}"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	provider := NewWidgetProvider(WidgetConfig{BaseURL: srv.URL, Delay: time.Millisecond}, testLogger())

	signal, err := provider.Fetch(t.Context(), "invoice chaser")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 70}, signal.Interest)
	assert.Empty(t, signal.Rising)
}
