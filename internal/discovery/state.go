package discovery

import (
	"github.com/oppradar/oppradar/internal/core/domain"
)

// State carries the pipeline's intermediate products between stages. Stages
// read the fields of earlier stages and write their own; nothing is mutated
// after the owning stage finishes.
type State struct {
	Records       []domain.NormalizedRecord
	PainPoints    []*domain.PainPoint
	Clusters      []*domain.PainPointCluster
	Candidates    []*domain.PainPointCluster
	Opportunities []*domain.AppOpportunity
	Ranked        []*domain.AppOpportunity

	ProviderCalls domain.UsageCounters
	Notes         []string
}

// branchResult is the output of one parallel collect-and-extract branch.
type branchResult struct {
	source     domain.SourceKind
	records    []domain.NormalizedRecord
	painPoints []*domain.PainPoint
	calls      domain.UsageCounters
	notes      []string
}

// mergeBranches folds per-source branch results into a fresh State. Slices
// concatenate in the declared collection order and counters sum, so the merge
// is deterministic regardless of which branch finished first.
func mergeBranches(results map[domain.SourceKind]*branchResult) *State {
	state := &State{ProviderCalls: make(domain.UsageCounters)}

	for _, source := range domain.CollectOrder {
		result, ok := results[source]
		if !ok {
			continue
		}

		state.Records = append(state.Records, result.records...)
		state.PainPoints = append(state.PainPoints, result.painPoints...)
		state.Notes = append(state.Notes, result.notes...)
		state.ProviderCalls.Add(result.calls)
	}

	return state
}
