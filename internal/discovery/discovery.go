// Package discovery orchestrates the opportunity pipeline: collect raw
// records from every source in parallel, mine pain points, cluster, filter,
// score, validate demand and rank into a briefing.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/llm"
	"github.com/oppradar/oppradar/internal/output/briefing"
	"github.com/oppradar/oppradar/internal/platform/observability"
	"github.com/oppradar/oppradar/internal/process/cluster"
	"github.com/oppradar/oppradar/internal/process/extract"
	"github.com/oppradar/oppradar/internal/process/filter"
	"github.com/oppradar/oppradar/internal/process/rank"
	"github.com/oppradar/oppradar/internal/process/score"
	"github.com/oppradar/oppradar/internal/trends"
)

// Collector fetches normalized records for one platform.
type Collector interface {
	Name() domain.SourceKind
	IsAvailable() bool
	Calls() int
	Collect(ctx context.Context, queries []string, limit int) ([]domain.NormalizedRecord, error)
}

// Options tunes one discovery run.
type Options struct {
	Queries       []string
	PerQueryLimit int
	TopN          int
}

// Service wires the pipeline stages together.
type Service struct {
	collectors []Collector
	extractor  *extract.Extractor
	clusterer  *cluster.Engine
	filter     *filter.Filter
	scorer     *score.Scorer
	validator  *trends.Validator
	llm        llm.Client
	opts       Options
	logger     *zerolog.Logger
}

func NewService(
	collectors []Collector,
	extractor *extract.Extractor,
	clusterer *cluster.Engine,
	fltr *filter.Filter,
	scorer *score.Scorer,
	validator *trends.Validator,
	llmClient llm.Client,
	opts Options,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		collectors: collectors,
		extractor:  extractor,
		clusterer:  clusterer,
		filter:     fltr,
		scorer:     scorer,
		validator:  validator,
		llm:        llmClient,
		opts:       opts,
		logger:     logger,
	}
}

// Run executes one full discovery pass and assembles the briefing. Branch
// and stage failures degrade the run instead of aborting it: an empty
// briefing with notes is still a valid result.
func (s *Service) Run(ctx context.Context, kind domain.BriefingKind) (*domain.Briefing, error) {
	started := time.Now()

	state := s.collectAndExtract(ctx)

	s.clusterStage(ctx, state)
	s.filterStage(ctx, state)
	s.scoreAndValidateStage(ctx, state)
	s.rankStage(state)

	usage := s.llm.Usage()
	report := briefing.Build(kind, state.Ranked, state.Candidates, briefing.RunStats{
		TotalDataPoints:     len(state.Records),
		PainPointsExtracted: len(state.PainPoints),
		CandidatesFiltered:  len(state.Candidates),
		ProviderCalls:       state.ProviderCalls,
		TokensUsed:          usage.TotalTokens(),
		EstimatedCostUSD:    usage.EstimatedCostUSD,
		Notes:               state.Notes,
	})

	observability.DiscoveryRuns.WithLabelValues("success").Inc()
	s.logger.Info().
		Str("kind", string(kind)).
		Int("data_points", report.TotalDataPoints).
		Int("pain_points", report.PainPointsExtracted).
		Int("opportunities", len(report.TopOpportunities)).
		Dur("took", time.Since(started)).
		Msg("discovery run finished")

	return report, nil
}

// collectAndExtract fans out one branch per source. Each branch collects and
// extracts on its own; a failure turns into a note, never into a pipeline
// error, so one dead platform cannot sink the run.
func (s *Service) collectAndExtract(ctx context.Context) *State {
	defer stageTimer("collect_extract")()

	results := make(map[domain.SourceKind]*branchResult, len(s.collectors))

	g, gctx := errgroup.WithContext(ctx)

	for _, collector := range s.collectors {
		result := &branchResult{source: collector.Name(), calls: make(domain.UsageCounters)}
		results[collector.Name()] = result

		g.Go(func() error {
			s.runBranch(gctx, collector, result)
			return nil
		})
	}

	_ = g.Wait() // branches never return errors

	return mergeBranches(results)
}

func (s *Service) runBranch(ctx context.Context, collector Collector, result *branchResult) {
	source := collector.Name()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("source", string(source)).Msg("source branch panicked")
			result.notes = append(result.notes, fmt.Sprintf("%s: branch panicked: %v", source, r))
		}

		result.calls[string(source)] = collector.Calls()
	}()

	if !collector.IsAvailable() {
		result.notes = append(result.notes, fmt.Sprintf("%s: not configured, skipped", source))
		return
	}

	records, err := collector.Collect(ctx, s.opts.Queries, s.opts.PerQueryLimit)
	if err != nil {
		result.notes = append(result.notes, fmt.Sprintf("%s: collect failed: %v", source, err))
		return
	}

	result.records = records

	points, err := s.extractor.Extract(ctx, source, records)
	if err != nil {
		result.notes = append(result.notes, fmt.Sprintf("%s: extraction failed: %v", source, err))
		return
	}

	result.painPoints = points
}

func (s *Service) clusterStage(ctx context.Context, state *State) {
	defer stageTimer("cluster")()

	clusters, err := s.clusterer.Cluster(ctx, state.PainPoints)
	if err != nil {
		// Cluster already degrades internally; this only fires on a
		// programming error upstream.
		state.Notes = append(state.Notes, fmt.Sprintf("clustering failed: %v", err))
		return
	}

	state.Clusters = clusters
}

func (s *Service) filterStage(ctx context.Context, state *State) {
	defer stageTimer("filter")()

	state.Candidates = s.filter.Select(ctx, state.Clusters)
}

func (s *Service) scoreAndValidateStage(ctx context.Context, state *State) {
	defer stageTimer("score_validate")()

	opportunities, err := s.scorer.GenerateConcepts(ctx, state.Candidates)
	if err != nil {
		state.Notes = append(state.Notes, fmt.Sprintf("concept generation failed: %v", err))
		return
	}

	for _, opp := range opportunities {
		validation := s.validator.Validate(ctx, opp.SearchKeyword)
		score.Finalize(opp, validation)
	}

	state.Opportunities = opportunities
}

func (s *Service) rankStage(state *State) {
	defer stageTimer("rank")()

	state.Ranked = rank.Top(state.Opportunities, s.opts.TopN)
}

func stageTimer(stage string) func() {
	started := time.Now()

	return func() {
		observability.DiscoveryStageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}
