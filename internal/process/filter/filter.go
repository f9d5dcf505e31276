// Package filter narrows clustered pain points down to the candidates worth
// spending scoring and trend-validation budget on.
package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/llm"
)

const defaultMaxCandidates = 45

// Filter asks the LLM to pick the clusters that look like viable app
// opportunities rather than vents, support issues or one-off gripes.
type Filter struct {
	llm    llm.Client
	max    int
	logger *zerolog.Logger
}

func New(client llm.Client, maxCandidates int, logger *zerolog.Logger) *Filter {
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}

	return &Filter{
		llm:    client,
		max:    maxCandidates,
		logger: logger,
	}
}

// Select returns at most max clusters judged viable. The LLM is advisory: on
// call failure or an unusable response the top clusters by engagement pass
// through unchanged, because a missing filter is a degraded run, not a dead one.
func (f *Filter) Select(ctx context.Context, clusters []*domain.PainPointCluster) []*domain.PainPointCluster {
	if len(clusters) <= f.max {
		return clusters
	}

	raw, err := f.llm.Complete(ctx, f.buildPrompt(clusters))
	if err != nil {
		f.logger.Warn().Err(err).Msg("filter LLM failed, keeping top clusters by engagement")

		return clusters[:f.max]
	}

	selected := f.parse(clusters, raw)
	if len(selected) == 0 {
		f.logger.Warn().Msg("filter response had no usable lines, keeping top clusters by engagement")

		return clusters[:f.max]
	}

	f.logger.Debug().Int("in", len(clusters)).Int("out", len(selected)).Msg("filtered candidate clusters")

	return selected
}

func (f *Filter) buildPrompt(clusters []*domain.PainPointCluster) string {
	var sb strings.Builder

	sb.WriteString("You are screening problem statements for viable software product opportunities.\n")
	sb.WriteString("Keep problems a small team could address with an app; drop vents, politics, support requests for existing products, and problems with no plausible software answer.\n")
	sb.WriteString(fmt.Sprintf("Output one line per kept problem, formatted exactly as: INDEX | PROBLEM. Keep at most %d.\n\nProblems:\n", f.max))

	for i, cl := range clusters {
		sb.WriteString(fmt.Sprintf("%d. [%d engagement, %d sources] %s\n", i+1, cl.TotalEngagement, cl.SourceCount(), cl.Representative))
	}

	return sb.String()
}

// parse reads `INDEX | PROBLEM` lines. Indexes are 1-based into the prompt
// order; malformed or out-of-range lines are skipped silently, duplicates
// keep the first occurrence.
func (f *Filter) parse(clusters []*domain.PainPointCluster, raw string) []*domain.PainPointCluster {
	var selected []*domain.PainPointCluster

	seen := make(map[int]bool)

	for _, line := range strings.Split(raw, "\n") {
		if len(selected) >= f.max {
			break
		}

		idxPart, _, found := strings.Cut(line, "|")
		if !found {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(idxPart), "INDEX:")))
		if err != nil || idx < 1 || idx > len(clusters) || seen[idx] {
			continue
		}

		seen[idx] = true
		selected = append(selected, clusters[idx-1])
	}

	return selected
}
