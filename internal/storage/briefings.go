package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oppradar/oppradar/internal/core/domain"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("storage: not found")

// Create stores one briefing. The full report is kept as a JSONB payload;
// the promoted columns exist for querying and the weekly rollup.
func (db *DB) Create(ctx context.Context, briefing *domain.Briefing) error {
	payload, err := json.Marshal(briefing)
	if err != nil {
		return fmt.Errorf("marshal briefing: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO briefings (id, kind, generated_at, data_points, opportunities, tokens_used, estimated_cost_usd, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		briefing.ID, string(briefing.Kind), briefing.GeneratedAt,
		briefing.TotalDataPoints, len(briefing.TopOpportunities),
		briefing.TokensUsed, briefing.EstimatedCostUSD, payload,
	)
	if err != nil {
		return fmt.Errorf("insert briefing: %w", err)
	}

	return nil
}

// LatestByKind returns the most recent briefing of the given kind.
func (db *DB) LatestByKind(ctx context.Context, kind domain.BriefingKind) (*domain.Briefing, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT payload FROM briefings
		WHERE kind = $1
		ORDER BY generated_at DESC
		LIMIT 1`, string(kind))

	return scanBriefing(row)
}

// RangeByKind returns briefings of the given kind generated in [from, to),
// oldest first.
func (db *DB) RangeByKind(ctx context.Context, kind domain.BriefingKind, from, to time.Time) ([]*domain.Briefing, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT payload FROM briefings
		WHERE kind = $1 AND generated_at >= $2 AND generated_at < $3
		ORDER BY generated_at ASC`, string(kind), from, to)
	if err != nil {
		return nil, fmt.Errorf("query briefings: %w", err)
	}
	defer rows.Close()

	var briefings []*domain.Briefing

	for rows.Next() {
		briefing, err := scanBriefing(rows)
		if err != nil {
			return nil, err
		}

		briefings = append(briefings, briefing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate briefings: %w", err)
	}

	return briefings, nil
}

func scanBriefing(row pgx.Row) (*domain.Briefing, error) {
	var payload []byte

	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scan briefing: %w", err)
	}

	var briefing domain.Briefing
	if err := json.Unmarshal(payload, &briefing); err != nil {
		return nil, fmt.Errorf("unmarshal briefing: %w", err)
	}

	return &briefing, nil
}
