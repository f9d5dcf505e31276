// Package embeddings provides batched text embedding generation for the
// clustering engine.
package embeddings

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/platform/config"
)

// Client generates embedding vectors for batches of text.
type Client interface {
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Default output dimensions, matching text-embedding-3-small.
const DefaultDimensions = 1536

// New creates the embedding client. The mock key selects the deterministic
// provider so local runs and tests never hit the network.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == config.LLMAPIKeyMock {
		logger.Warn().Msg("no embedding provider configured, using mock provider")
		return NewMock()
	}

	return newOpenAI(cfg)
}
