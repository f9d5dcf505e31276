// Package rank orders scored opportunities and cuts the briefing shortlist.
package rank

import (
	"sort"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/platform/observability"
)

// DefaultTop is the briefing shortlist size.
const DefaultTop = 20

// Top returns the highest-scoring opportunities, at most n, in descending
// score order. The sort is stable so equal scores keep their upstream
// (engagement-derived) order and repeated runs agree.
func Top(opportunities []*domain.AppOpportunity, n int) []*domain.AppOpportunity {
	if n <= 0 {
		n = DefaultTop
	}

	ranked := append([]*domain.AppOpportunity(nil), opportunities...)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OpportunityScore > ranked[j].OpportunityScore
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	observability.OpportunitiesRanked.Set(float64(len(ranked)))

	return ranked
}
