// Package app wires configuration into the running services shared by the
// binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/embeddings"
	"github.com/oppradar/oppradar/internal/core/llm"
	"github.com/oppradar/oppradar/internal/discovery"
	"github.com/oppradar/oppradar/internal/output/briefing"
	"github.com/oppradar/oppradar/internal/platform/config"
	"github.com/oppradar/oppradar/internal/process/cluster"
	"github.com/oppradar/oppradar/internal/process/extract"
	"github.com/oppradar/oppradar/internal/process/filter"
	"github.com/oppradar/oppradar/internal/process/score"
	"github.com/oppradar/oppradar/internal/sources"
	"github.com/oppradar/oppradar/internal/storage"
	"github.com/oppradar/oppradar/internal/trends"
)

const weeklyLookback = 7 * 24 * time.Hour

// App holds the wired services.
type App struct {
	Cfg     *config.Config
	DB      *storage.DB // nil when no DSN is configured
	LLM     llm.Client
	Service *discovery.Service

	logger *zerolog.Logger
}

// New builds the full pipeline from configuration. The database is optional;
// without it briefings only go to the log and quota tracking lives in memory.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var db *storage.DB

	if cfg.PostgresDSN != "" {
		var err error

		db, err = storage.New(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	llmClient := llm.New(cfg, logger)
	embedder := embeddings.New(cfg, logger)

	collectors := buildCollectors(cfg, logger)
	validator := buildValidator(cfg, db, logger)

	queries, itemsPerQuery := cfg.TestModeScale()

	service := discovery.NewService(
		collectors,
		extract.New(llmClient, cfg.MaxRecordsPerExtract, logger),
		cluster.NewEngine(embedder, float64(cfg.ClusterThreshold), logger),
		filter.New(llmClient, cfg.MaxCandidates, logger),
		score.New(llmClient, logger),
		validator,
		llmClient,
		discovery.Options{
			Queries:       queries,
			PerQueryLimit: itemsPerQuery,
			TopN:          cfg.TopOpportunities,
		},
		logger,
	)

	return &App{
		Cfg:     cfg,
		DB:      db,
		LLM:     llmClient,
		Service: service,
		logger:  logger,
	}, nil
}

func buildCollectors(cfg *config.Config, logger *zerolog.Logger) []discovery.Collector {
	return []discovery.Collector{
		sources.NewRedditClient(sources.RedditConfig{
			UserAgent: cfg.RedditUserAgent,
			RateRPS:   cfg.SourceRateRPS,
			Timeout:   cfg.SourceHTTPTimeout,
		}, logger),
		sources.NewTwitterClient(sources.TwitterConfig{
			BearerToken: cfg.TwitterBearer,
			RateRPS:     cfg.SourceRateRPS,
			Timeout:     cfg.SourceHTTPTimeout,
		}, logger),
		sources.NewYouTubeClient(sources.YouTubeConfig{
			APIKey:  cfg.YouTubeAPIKey,
			RateRPS: cfg.SourceRateRPS,
			Timeout: cfg.SourceHTTPTimeout,
		}, logger),
		sources.NewProductHuntClient(sources.ProductHuntConfig{
			Token:   cfg.ProductHuntToken,
			RateRPS: cfg.SourceRateRPS,
			Timeout: cfg.SourceHTTPTimeout,
		}, logger),
	}
}

func buildValidator(cfg *config.Config, db *storage.DB, logger *zerolog.Logger) *trends.Validator {
	var quota trends.QuotaStore = trends.NewMemoryQuotaStore()
	if db != nil {
		quota = db.Quota()
	}

	var providers []trends.Provider

	if cfg.SerpAPIKeyOne != "" || cfg.SerpAPIKeyTwo != "" {
		providers = append(providers, trends.NewSerpAPIProvider(trends.SerpAPIConfig{
			APIKeyOne:    cfg.SerpAPIKeyOne,
			APIKeyTwo:    cfg.SerpAPIKeyTwo,
			MonthlyLimit: cfg.SerpMonthlyLimit,
			Timeout:      cfg.TrendsHTTPTimeout,
		}, quota, logger))
	}

	providers = append(providers, trends.NewWidgetProvider(trends.WidgetConfig{
		Delay:   cfg.TrendsWidgetDelay,
		Timeout: cfg.TrendsHTTPTimeout,
	}, logger))

	return trends.NewValidator(logger, providers...)
}

// RunDaily executes one discovery pass, persists the briefing when a
// database is configured and logs the rendered report.
func (a *App) RunDaily(ctx context.Context) error {
	report, err := a.Service.Run(ctx, domain.BriefingDaily)
	if err != nil {
		return fmt.Errorf("discovery run: %w", err)
	}

	if a.DB != nil {
		if err := a.DB.Create(ctx, report); err != nil {
			a.logger.Error().Err(err).Msg("persist daily briefing failed")
		}
	}

	fmt.Println(briefing.RenderMarkdown(report))

	return nil
}

// RunWeekly folds the stored daily briefings of the past week into a weekly
// digest.
func (a *App) RunWeekly(ctx context.Context) error {
	if a.DB == nil {
		return fmt.Errorf("weekly briefing requires a configured database")
	}

	now := time.Now().UTC()

	dailies, err := a.DB.RangeByKind(ctx, domain.BriefingDaily, now.Add(-weeklyLookback), now)
	if err != nil {
		return fmt.Errorf("load daily briefings: %w", err)
	}

	weekly := briefing.BuildWeekly(dailies, a.Cfg.TopOpportunities)

	if err := a.DB.Create(ctx, weekly); err != nil {
		a.logger.Error().Err(err).Msg("persist weekly briefing failed")
	}

	fmt.Println(briefing.RenderMarkdown(weekly))

	return nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
