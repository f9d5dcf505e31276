// Package trends validates candidate keywords against real search demand.
// A metered SerpAPI account is the primary signal; the unofficial trends
// widget endpoint is the fallback; a zero signal is the floor. Validation
// never fails a discovery run.
package trends

import (
	"context"
	"errors"
)

// Signal is the raw demand data a provider returns for one keyword.
type Signal struct {
	// Interest holds daily search-interest points in [0,100], oldest first.
	Interest []int
	// Rising and Top are related queries, most relevant first.
	Rising []string
	Top    []string
}

// Provider fetches a demand signal for a keyword.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, keyword string) (*Signal, error)
}

var (
	// ErrQuotaExhausted means every configured API key is at its monthly limit.
	ErrQuotaExhausted = errors.New("trends: all api keys exhausted for this month")

	// ErrNoData means the provider answered but carried no interest points.
	ErrNoData = errors.New("trends: provider returned no data")
)
