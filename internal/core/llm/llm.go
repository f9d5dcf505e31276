// Package llm provides the completion capability the pipeline's prompt-based
// stages (extractor, filter, scorer) run on. Callers only ever see plain
// text: heterogeneous response content (multi-part messages, reasoning
// segments) is flattened at this boundary, not per caller.
package llm

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/platform/config"
)

// Client is the completion interface the pipeline depends on.
type Client interface {
	// Complete sends one prompt and returns the plain-text response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Usage returns a snapshot of accumulated usage for reporting.
	Usage() Usage
}

// Usage aggregates request and token counters across a client's lifetime.
type Usage struct {
	Calls            int
	PromptTokens     int64
	CompletionTokens int64
	EstimatedCostUSD float64
}

// TotalTokens returns prompt plus completion tokens.
func (u Usage) TotalTokens() int64 {
	return u.PromptTokens + u.CompletionTokens
}

// usageRecorder is the shared mutable counter behind Usage snapshots.
type usageRecorder struct {
	mu    sync.Mutex
	usage Usage
}

func (r *usageRecorder) record(promptTokens, completionTokens int, costUSD float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.usage.Calls++
	r.usage.PromptTokens += int64(promptTokens)
	r.usage.CompletionTokens += int64(completionTokens)
	r.usage.EstimatedCostUSD += costUSD
}

func (r *usageRecorder) snapshot() Usage {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.usage
}

// New creates the LLM client. The mock key selects the canned provider so
// local runs and tests never hit the network.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == config.LLMAPIKeyMock {
		return NewMock()
	}

	return newOpenAI(cfg, logger)
}
