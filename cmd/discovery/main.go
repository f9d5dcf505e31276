// The discovery binary runs the opportunity pipeline, either once or on the
// daily/weekly schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/app"
	"github.com/oppradar/oppradar/internal/platform/config"
	"github.com/oppradar/oppradar/internal/platform/observability"
	"github.com/oppradar/oppradar/internal/platform/worker"
)

func main() {
	once := flag.Bool("once", false, "run a single discovery pass and exit")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	application, err := app.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer application.Close()

	if *once {
		if err := application.RunDaily(ctx); err != nil {
			logger.Fatal().Err(err).Msg("discovery run failed")
		}

		return
	}

	var pinger observability.Pinger
	if application.DB != nil {
		pinger = application.DB
	}

	health := observability.NewServer(pinger, cfg.HealthPort, &logger)

	go func() {
		if err := health.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("health server error")
		}
	}()

	weekday := cfg.WeeklyBriefDay

	jobs := []worker.Job{
		{
			Name: "daily-discovery",
			Hour: cfg.DailyRunHour,
			Run: func(ctx context.Context) {
				if err := application.RunDaily(ctx); err != nil {
					logger.Error().Err(err).Msg("daily discovery failed")
				}
			},
		},
	}

	if application.DB != nil {
		jobs = append(jobs, worker.Job{
			Name:    "weekly-briefing",
			Hour:    cfg.WeeklyBriefHour,
			Weekday: &weekday,
			Run: func(ctx context.Context) {
				if err := application.RunWeekly(ctx); err != nil {
					logger.Error().Err(err).Msg("weekly briefing failed")
				}
			},
		})
	}

	logger.Info().Int("jobs", len(jobs)).Msg("starting discovery scheduler")

	if err := worker.Loop(ctx, &logger, jobs...); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("scheduler stopped")
	}

	logger.Info().Msg("discovery stopped")
}
