package briefing

import (
	"fmt"
	"strings"

	"github.com/oppradar/oppradar/internal/core/domain"
)

const maxRenderedPainPoints = 3

// RenderMarkdown formats the briefing for human reading: a ranked list with
// scores and evidence, then the run counters.
func RenderMarkdown(b *domain.Briefing) string {
	var sb strings.Builder

	title := "Daily Opportunity Briefing"
	if b.Kind == domain.BriefingWeekly {
		title = "Weekly Opportunity Briefing"
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated %s\n\n", b.GeneratedAt.Format("2006-01-02 15:04 UTC")))

	if len(b.TopOpportunities) == 0 {
		sb.WriteString("No opportunities surfaced in this run.\n\n")
	}

	for i, opp := range b.TopOpportunities {
		sb.WriteString(fmt.Sprintf("## %d. %s (score %d)\n\n", i+1, opp.AppIdea, opp.OpportunityScore))
		sb.WriteString(fmt.Sprintf("**Problem:** %s\n\n", opp.Problem))
		sb.WriteString(fmt.Sprintf("**Keyword:** `%s` | demand %d | virality %d | buildability %d\n\n",
			opp.SearchKeyword, opp.DemandScore, opp.ViralityScore, opp.BuildabilityScore))

		if opp.Trend != nil {
			sb.WriteString(fmt.Sprintf("Search interest %d, momentum %+.1f%% (%s)",
				opp.Trend.InterestScore, opp.Trend.Momentum, opp.Trend.Direction))

			if len(opp.Trend.RelatedQueries) > 0 {
				sb.WriteString(". Related: " + strings.Join(opp.Trend.RelatedQueries, ", "))
			}

			sb.WriteString("\n\n")
		}

		for j, point := range opp.PainPoints {
			if j >= maxRenderedPainPoints {
				sb.WriteString(fmt.Sprintf("- and %d more\n", len(opp.PainPoints)-maxRenderedPainPoints))
				break
			}

			sb.WriteString(fmt.Sprintf("- [%s] %q\n", point.Source, point.Quote))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Data points: %d | pain points: %d | candidates: %d | tokens: %d | est. cost: $%.4f\n",
		b.TotalDataPoints, b.PainPointsExtracted, b.CandidatesFiltered, b.TokensUsed, b.EstimatedCostUSD))

	if len(b.Notes) > 0 {
		sb.WriteString("\nNotes:\n")

		for _, note := range b.Notes {
			sb.WriteString("- " + note + "\n")
		}
	}

	return sb.String()
}
