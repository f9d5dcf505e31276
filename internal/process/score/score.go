// Package score turns candidate clusters into app concepts and computes the
// component and composite opportunity scores.
package score

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/llm"
)

const (
	defaultComponentScore = 50

	minComponentScore = 10
	maxComponentScore = 100

	demandWeight       = 0.4
	viralityWeight     = 0.4
	buildabilityWeight = 0.2
)

// engagementSaturation is the per-source engagement level treated as a full
// 100 virality signal. Platforms have very different engagement economies: 50
// likes on a video comment mean more than 50 upvotes on a subreddit.
var engagementSaturation = map[domain.SourceKind]int{
	domain.SourceReddit:      100,
	domain.SourceTwitter:     100,
	domain.SourceYouTube:     50,
	domain.SourceProductHunt: 200,
}

// Scorer generates app concepts for candidate clusters and scores them.
type Scorer struct {
	llm    llm.Client
	logger *zerolog.Logger
}

func New(client llm.Client, logger *zerolog.Logger) *Scorer {
	return &Scorer{llm: client, logger: logger}
}

// GenerateConcepts asks the LLM for an app idea, a search keyword and
// virality/buildability estimates per candidate, in one call. Candidates the
// model skipped or mangled get conservative defaults so nothing silently
// drops between filtering and ranking.
func (s *Scorer) GenerateConcepts(ctx context.Context, clusters []*domain.PainPointCluster) ([]*domain.AppOpportunity, error) {
	if len(clusters) == 0 {
		return nil, nil
	}

	raw, err := s.llm.Complete(ctx, s.buildPrompt(clusters))
	if err != nil {
		return nil, fmt.Errorf("generate concepts: %w", err)
	}

	parsed := parseConceptLines(raw, len(clusters))
	opportunities := make([]*domain.AppOpportunity, 0, len(clusters))

	for i, cl := range clusters {
		concept, ok := parsed[i+1]
		if !ok {
			concept = conceptRow{
				Keyword:      cl.Representative,
				Idea:         "App addressing: " + cl.Representative,
				Virality:     defaultComponentScore,
				Buildability: defaultComponentScore,
			}
		}

		// Observed engagement replaces the model's virality guess; the guess
		// only survives for a cluster with no engagement data at all.
		virality := concept.Virality
		if ev := EngagementVirality(cl); ev > 0 {
			virality = ev
		}

		opportunities = append(opportunities, &domain.AppOpportunity{
			ID:                uuid.NewString(),
			Problem:           cl.Representative,
			AppIdea:           concept.Idea,
			SearchKeyword:     concept.Keyword,
			ViralityScore:     virality,
			BuildabilityScore: concept.Buildability,
			PainPoints:        cl.Members,
		})
	}

	s.logger.Debug().Int("candidates", len(clusters)).Int("parsed", len(parsed)).Msg("generated app concepts")

	return opportunities, nil
}

func (s *Scorer) buildPrompt(clusters []*domain.PainPointCluster) string {
	var sb strings.Builder

	sb.WriteString("For each problem below, propose one focused app concept.\n")
	sb.WriteString("Output one line per problem, formatted exactly as:\n")
	sb.WriteString("INDEX | SEARCH_KEYWORD | APP_IDEA | VIRALITY | BUILDABILITY\n")
	sb.WriteString("SEARCH_KEYWORD is the 2-4 word phrase someone with this problem would google. VIRALITY and BUILDABILITY are integers 0-100; buildability 100 means a solo developer ships it in weeks.\n\nProblems:\n")

	for i, cl := range clusters {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, cl.Representative))
	}

	return sb.String()
}

type conceptRow struct {
	Keyword      string
	Idea         string
	Virality     int
	Buildability int
}

// parseConceptLines reads pipe-delimited concept lines keyed by 1-based
// index. Lines with fewer than three fields are skipped; missing or
// non-numeric scores default rather than fail.
func parseConceptLines(raw string, max int) map[int]conceptRow {
	rows := make(map[int]conceptRow)

	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || idx < 1 || idx > max {
			continue
		}

		row := conceptRow{
			Keyword:      strings.TrimSpace(fields[1]),
			Idea:         strings.TrimSpace(fields[2]),
			Virality:     defaultComponentScore,
			Buildability: defaultComponentScore,
		}

		if len(fields) > 3 {
			if v, err := strconv.Atoi(strings.TrimSpace(fields[3])); err == nil {
				row.Virality = clampScore(v)
			}
		}

		if len(fields) > 4 {
			if b, err := strconv.Atoi(strings.TrimSpace(fields[4])); err == nil {
				row.Buildability = clampScore(b)
			}
		}

		rows[idx] = row
	}

	return rows
}

// NormalizeEngagement maps a raw engagement count onto [10,100] using the
// source's saturation level. Zero and negative counts still return the floor:
// a mined pain point with no likes is weak signal, not zero signal.
func NormalizeEngagement(source domain.SourceKind, engagement int) int {
	saturation, ok := engagementSaturation[source]
	if !ok {
		saturation = 100
	}

	if engagement <= 0 {
		return minComponentScore
	}

	scaled := engagement * maxComponentScore / saturation
	if scaled > maxComponentScore {
		return maxComponentScore
	}

	if scaled < minComponentScore {
		return minComponentScore
	}

	return scaled
}

// EngagementVirality is the strongest normalized per-source engagement in the
// cluster.
func EngagementVirality(cl *domain.PainPointCluster) int {
	best := 0

	for source, engagement := range cl.EngagementBySource {
		if v := NormalizeEngagement(source, engagement); v > best {
			best = v
		}
	}

	return best
}

// CompositeScore combines the three component scores: demand and virality
// carry equal weight, buildability half of either.
func CompositeScore(demand, virality, buildability int) int {
	return int(math.Round(demandWeight*float64(demand) + viralityWeight*float64(virality) + buildabilityWeight*float64(buildability)))
}

// Finalize fills the demand score from the trend validation and computes the
// composite opportunity score.
func Finalize(opp *domain.AppOpportunity, trend *domain.TrendValidation) {
	opp.Trend = trend
	opp.DemandScore = trend.TrendScore
	opp.OpportunityScore = CompositeScore(opp.DemandScore, opp.ViralityScore, opp.BuildabilityScore)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}

	if v > maxComponentScore {
		return maxComponentScore
	}

	return v
}
