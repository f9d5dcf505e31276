package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	widgetBaseURL = "https://trends.google.com"

	// widgetDelay paces unofficial endpoint calls. The endpoint is not an
	// API and bans aggressive callers.
	widgetDelay          = 2 * time.Second
	widgetDefaultTimeout = 30 * time.Second

	// widgetJSONPrefix is the anti-hijacking prefix Google prepends to the
	// response body.
	widgetJSONPrefix = ")]}'"
)

// WidgetProvider scrapes the unofficial Google Trends widget endpoints: an
// explore call issues a short-lived token, a widgetdata call returns the
// timeseries. No credentials, no quota, no SLA. Related queries are not
// fetched here; the extra endpoint is not worth the ban risk on a fallback.
type WidgetProvider struct {
	baseURL    string
	delay      time.Duration
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zerolog.Logger
}

// WidgetConfig holds configuration for the widget provider.
type WidgetConfig struct {
	BaseURL string
	Delay   time.Duration
	Timeout time.Duration
}

func NewWidgetProvider(cfg WidgetConfig, logger *zerolog.Logger) *WidgetProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = widgetBaseURL
	}

	if cfg.Delay <= 0 {
		cfg.Delay = widgetDelay
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = widgetDefaultTimeout
	}

	return &WidgetProvider{
		baseURL:    cfg.BaseURL,
		delay:      cfg.Delay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      sleepCtx,
		logger:     logger,
	}
}

func (p *WidgetProvider) Name() string {
	return "trends_widget"
}

func (p *WidgetProvider) Fetch(ctx context.Context, keyword string) (*Signal, error) {
	token, err := p.exploreToken(ctx, keyword)
	if err != nil {
		return nil, err
	}

	if err := p.sleep(ctx, p.delay); err != nil {
		return nil, err
	}

	interest, err := p.timeline(ctx, token)
	if err != nil {
		return nil, err
	}

	if len(interest) == 0 {
		return nil, ErrNoData
	}

	return &Signal{Interest: interest}, nil
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type widgetToken struct {
	token   string
	request json.RawMessage
}

func (p *WidgetProvider) exploreToken(ctx context.Context, keyword string) (*widgetToken, error) {
	exploreReq := fmt.Sprintf(`{"comparisonItem":[{"keyword":%s,"geo":"","time":"today 3-m"}],"category":0,"property":""}`, strconv.Quote(keyword))

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "0")
	params.Set("req", exploreReq)

	body, err := p.get(ctx, "/trends/api/explore?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp exploreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("explore decode: %w", err)
	}

	for _, widget := range resp.Widgets {
		if widget.ID == "TIMESERIES" {
			return &widgetToken{token: widget.Token, request: widget.Request}, nil
		}
	}

	return nil, ErrNoData
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []int `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

func (p *WidgetProvider) timeline(ctx context.Context, token *widgetToken) ([]int, error) {
	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "0")
	params.Set("token", token.token)
	params.Set("req", string(token.request))

	body, err := p.get(ctx, "/trends/api/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp multilineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("multiline decode: %w", err)
	}

	var interest []int

	for _, point := range resp.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}

		interest = append(interest, point.Value[0])
	}

	return interest, nil
}

func (p *WidgetProvider) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("widget request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("widget endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return []byte(strings.TrimPrefix(strings.TrimSpace(string(body)), widgetJSONPrefix)), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
