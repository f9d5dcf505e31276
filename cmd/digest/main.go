// The digest binary prints stored briefings: the latest daily or weekly, or
// an ad-hoc weekly rollup of the past seven days.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/output/briefing"
	"github.com/oppradar/oppradar/internal/platform/config"
	"github.com/oppradar/oppradar/internal/storage"
)

const lookback = 7 * 24 * time.Hour

func main() {
	kind := flag.String("kind", "daily", "briefing kind to show: daily or weekly")
	rollup := flag.Bool("rollup", false, "build a fresh weekly rollup from the stored dailies instead of showing a stored briefing")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.PostgresDSN == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required to read stored briefings")
	}

	ctx := context.Background()

	db, err := storage.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if *rollup {
		printRollup(ctx, db, cfg, &logger)
		return
	}

	printLatest(ctx, db, domain.BriefingKind(*kind), &logger)
}

func printLatest(ctx context.Context, db *storage.DB, kind domain.BriefingKind, logger *zerolog.Logger) {
	report, err := db.LatestByKind(ctx, kind)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Fatal().Str("kind", string(kind)).Msg("no stored briefing of this kind")
		}

		logger.Fatal().Err(err).Msg("failed to load briefing")
	}

	fmt.Println(briefing.RenderMarkdown(report))
}

func printRollup(ctx context.Context, db *storage.DB, cfg *config.Config, logger *zerolog.Logger) {
	now := time.Now().UTC()

	dailies, err := db.RangeByKind(ctx, domain.BriefingDaily, now.Add(-lookback), now)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load daily briefings")
	}

	if len(dailies) == 0 {
		logger.Fatal().Msg("no daily briefings stored in the past week")
	}

	fmt.Println(briefing.RenderMarkdown(briefing.BuildWeekly(dailies, cfg.TopOpportunities)))
}
