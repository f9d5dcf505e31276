package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/oppradar/oppradar/internal/platform/config"
)

const (
	openaiRateLimiterBurst = 5

	// One batched request covers a whole clustering pass; the API caps
	// inputs per request, so oversized batches are split.
	maxInputsPerRequest = 2048
)

// ErrEmptyResponse indicates the provider returned fewer vectors than inputs.
var ErrEmptyResponse = errors.New("embedding response missing vectors")

type openaiClient struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
}

func newOpenAI(cfg *config.Config) *openaiClient {
	model := cfg.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	rps := cfg.LLMRateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	return &openaiClient{
		client:      openai.NewClient(cfg.LLMAPIKey),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), openaiRateLimiterBurst),
	}
}

func (c *openaiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxInputsPerRequest {
		end := start + maxInputsPerRequest
		if end > len(texts) {
			end = len(texts)
		}

		chunk, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, chunk...)
	}

	return vectors, nil
}

func (c *openaiClient) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, ErrEmptyResponse
	}

	vectors := make([][]float32, len(texts))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}

	return vectors, nil
}
