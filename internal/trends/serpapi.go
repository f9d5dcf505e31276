package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/platform/observability"
)

const (
	serpAPIBaseURL = "https://serpapi.com/search.json"

	// DefaultMonthlyLimit matches SerpAPI's free-plan request allowance.
	DefaultMonthlyLimit = 250

	serpAPIBurst          = 1
	serpAPIDefaultTimeout = 30 * time.Second

	keyOne = "serpapi_key_1"
	keyTwo = "serpapi_key_2"
)

// SerpAPIProvider fetches Google Trends data through SerpAPI, rotating across
// two metered API keys. Each HTTP request consumes one quota unit on the key
// that made it; a key that hits its monthly limit, or gets a 429, sits out
// until the month rolls over.
type SerpAPIProvider struct {
	baseURL      string
	keys         map[string]string
	monthlyLimit int
	quota        QuotaStore
	httpClient   *http.Client
	limiter      *rate.Limiter
	now          func() time.Time
	logger       *zerolog.Logger
}

// SerpAPIConfig holds configuration for the SerpAPI provider.
type SerpAPIConfig struct {
	BaseURL      string
	APIKeyOne    string
	APIKeyTwo    string
	MonthlyLimit int
	RateRPS      float64
	Timeout      time.Duration
}

func NewSerpAPIProvider(cfg SerpAPIConfig, quota QuotaStore, logger *zerolog.Logger) *SerpAPIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = serpAPIBaseURL
	}

	if cfg.MonthlyLimit <= 0 {
		cfg.MonthlyLimit = DefaultMonthlyLimit
	}

	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = serpAPIDefaultTimeout
	}

	keys := make(map[string]string)
	if cfg.APIKeyOne != "" {
		keys[keyOne] = cfg.APIKeyOne
	}

	if cfg.APIKeyTwo != "" {
		keys[keyTwo] = cfg.APIKeyTwo
	}

	return &SerpAPIProvider{
		baseURL:      cfg.BaseURL,
		keys:         keys,
		monthlyLimit: cfg.MonthlyLimit,
		quota:        quota,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateRPS), serpAPIBurst),
		now:          time.Now,
		logger:       logger,
	}
}

func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

// Fetch pulls the interest timeseries and, best effort, the related queries.
// Related-query failures degrade to an empty list; only a missing timeseries
// fails the fetch.
func (p *SerpAPIProvider) Fetch(ctx context.Context, keyword string) (*Signal, error) {
	signal := &Signal{}

	if err := p.fetchTimeseries(ctx, keyword, signal); err != nil {
		return nil, err
	}

	if err := p.fetchRelated(ctx, keyword, signal); err != nil {
		p.logger.Debug().Err(err).Str("keyword", keyword).Msg("related queries unavailable")
	}

	if len(signal.Interest) == 0 {
		return nil, ErrNoData
	}

	return signal, nil
}

type serpTimeseriesResponse struct {
	InterestOverTime struct {
		TimelineData []struct {
			Values []struct {
				ExtractedValue int `json:"extracted_value"`
			} `json:"values"`
		} `json:"timeline_data"`
	} `json:"interest_over_time"`
}

type serpRelatedResponse struct {
	RelatedQueries struct {
		Rising []struct {
			Query string `json:"query"`
		} `json:"rising"`
		Top []struct {
			Query string `json:"query"`
		} `json:"top"`
	} `json:"related_queries"`
}

func (p *SerpAPIProvider) fetchTimeseries(ctx context.Context, keyword string, signal *Signal) error {
	var resp serpTimeseriesResponse
	if err := p.request(ctx, keyword, "TIMESERIES", &resp); err != nil {
		return err
	}

	for _, point := range resp.InterestOverTime.TimelineData {
		if len(point.Values) == 0 {
			continue
		}

		signal.Interest = append(signal.Interest, point.Values[0].ExtractedValue)
	}

	return nil
}

func (p *SerpAPIProvider) fetchRelated(ctx context.Context, keyword string, signal *Signal) error {
	var resp serpRelatedResponse
	if err := p.request(ctx, keyword, "RELATED_QUERIES", &resp); err != nil {
		return err
	}

	for _, q := range resp.RelatedQueries.Rising {
		signal.Rising = append(signal.Rising, q.Query)
	}

	for _, q := range resp.RelatedQueries.Top {
		signal.Top = append(signal.Top, q.Query)
	}

	return nil
}

// request performs one metered call. A 429 pins the active key at its limit
// and retries once on the other key.
func (p *SerpAPIProvider) request(ctx context.Context, keyword, dataType string, target any) error {
	month := MonthKey(p.now())

	for attempt := 0; attempt < 2; attempt++ {
		keyID, apiKey, err := p.activeKey(ctx, month)
		if err != nil {
			return err
		}

		status, err := p.doRequest(ctx, keyword, dataType, apiKey, target)
		if err != nil {
			return err
		}

		if _, incErr := p.quota.Increment(ctx, keyID, month); incErr != nil {
			p.logger.Warn().Err(incErr).Str("key", keyID).Msg("quota increment failed")
		}

		if status == http.StatusTooManyRequests {
			p.logger.Warn().Str("key", keyID).Str("month", month).Msg("serpapi key rejected, pinning at limit")

			if setErr := p.quota.Set(ctx, keyID, month, p.monthlyLimit); setErr != nil {
				p.logger.Warn().Err(setErr).Str("key", keyID).Msg("quota pin failed")
			}

			continue
		}

		if status != http.StatusOK {
			return fmt.Errorf("serpapi returned %d", status)
		}

		return nil
	}

	return ErrQuotaExhausted
}

// activeKey returns the first configured key with quota left this month.
func (p *SerpAPIProvider) activeKey(ctx context.Context, month string) (string, string, error) {
	for _, keyID := range []string{keyOne, keyTwo} {
		apiKey, ok := p.keys[keyID]
		if !ok {
			continue
		}

		count, err := p.quota.Count(ctx, keyID, month)
		if err != nil {
			return "", "", fmt.Errorf("quota lookup: %w", err)
		}

		if count < p.monthlyLimit {
			return keyID, apiKey, nil
		}
	}

	return "", "", ErrQuotaExhausted
}

func (p *SerpAPIProvider) doRequest(ctx context.Context, keyword, dataType, apiKey string, target any) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("q", keyword)
	params.Set("data_type", dataType)
	params.Set("date", "today 3-m")
	params.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		observability.TrendRequests.WithLabelValues(p.Name(), "error").Inc()

		return 0, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		observability.TrendRequests.WithLabelValues(p.Name(), "error").Inc()

		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		observability.TrendRequests.WithLabelValues(p.Name(), "error").Inc()

		return 0, fmt.Errorf("serpapi decode: %w", err)
	}

	observability.TrendRequests.WithLabelValues(p.Name(), "success").Inc()

	return http.StatusOK, nil
}
