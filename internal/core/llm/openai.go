package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/platform/config"
	"github.com/oppradar/oppradar/internal/platform/observability"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	rateLimiterBurst        = 5
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("empty response from LLM")

type openaiClient struct {
	client      *openai.Client
	model       string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	budget      *BudgetTracker
	usage       usageRecorder

	// Circuit breaker state.
	mu                  sync.Mutex
	consecutiveFailures int
	circuitOpenUntil    time.Time
}

func newOpenAI(cfg *config.Config, logger *zerolog.Logger) *openaiClient {
	rps := cfg.LLMRateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	return &openaiClient{
		client:      openai.NewClient(cfg.LLMAPIKey),
		model:       cfg.LLMModel,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		budget:      NewBudgetTracker(cfg.LLMDailyTokenBudget, logger),
	}
}

func (c *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	observability.LLMRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.recordSuccess()
	c.recordUsage(resp.Usage)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := extractPlainText(resp.Choices[0].Message)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

func (c *openaiClient) Usage() Usage {
	return c.usage.snapshot()
}

// extractPlainText flattens a chat message into plain text. Reasoning-model
// responses can carry segmented content or put tokens in the reasoning field
// while the content field stays empty; downstream parsers only ever see the
// text segments.
func extractPlainText(msg openai.ChatCompletionMessage) string {
	if content := strings.TrimSpace(msg.Content); content != "" {
		return content
	}

	var sb strings.Builder

	for _, part := range msg.MultiContent {
		if part.Type != openai.ChatMessagePartTypeText {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(part.Text)
	}

	return strings.TrimSpace(sb.String())
}

func (c *openaiClient) recordUsage(u openai.Usage) {
	cost := estimateCost(c.model, u.PromptTokens, u.CompletionTokens)
	c.usage.record(u.PromptTokens, u.CompletionTokens, cost)
	c.budget.RecordTokens(u.TotalTokens)
	observability.LLMTokensUsed.Add(float64(u.TotalTokens))
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("LLM circuit breaker opened")
	}
}
