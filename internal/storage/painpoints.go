package storage

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/oppradar/oppradar/internal/core/domain"
)

// SavePainPoints stores mined pain points with their problem embeddings.
// Re-extracting the same source item on a later run upserts instead of
// duplicating.
func (db *DB) SavePainPoints(ctx context.Context, points []*domain.PainPoint, vectors [][]float32) error {
	if len(points) != len(vectors) {
		return fmt.Errorf("points/vectors length mismatch: %d != %d", len(points), len(vectors))
	}

	for i, point := range points {
		var embedding interface{}
		if len(vectors[i]) > 0 {
			embedding = pgvector.NewVector(vectors[i])
		}

		// Points that never joined back to a source record key on their own ID.
		sourceID := point.SourceID
		if sourceID == "" {
			sourceID = point.ID
		}

		_, err := db.Pool.Exec(ctx, `
			INSERT INTO pain_points (id, quote, problem, source, source_id, engagement, extracted_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (source, source_id) DO UPDATE SET
				quote = EXCLUDED.quote,
				problem = EXCLUDED.problem,
				engagement = EXCLUDED.engagement,
				extracted_at = EXCLUDED.extracted_at,
				embedding = EXCLUDED.embedding`,
			point.ID, SanitizeUTF8(point.Quote), SanitizeUTF8(point.Problem),
			string(point.Source), sourceID, point.Engagement, point.ExtractedAt, embedding,
		)
		if err != nil {
			return fmt.Errorf("insert pain point: %w", err)
		}
	}

	return nil
}

// SimilarPainPoints returns stored pain points closest to the query
// embedding by cosine distance, for surfacing recurring problems across runs.
func (db *DB) SimilarPainPoints(ctx context.Context, embedding []float32, limit int) ([]*domain.PainPoint, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, quote, problem, source, source_id, engagement, extracted_at
		FROM pain_points
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar pain points: %w", err)
	}
	defer rows.Close()

	var points []*domain.PainPoint

	for rows.Next() {
		point := &domain.PainPoint{}

		var source string

		if err := rows.Scan(&point.ID, &point.Quote, &point.Problem, &source, &point.SourceID, &point.Engagement, &point.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scan pain point: %w", err)
		}

		point.Source = domain.SourceKind(source)
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pain points: %w", err)
	}

	return points, nil
}
