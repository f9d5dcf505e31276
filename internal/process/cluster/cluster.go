// Package cluster groups pain points that describe the same underlying
// problem using embedding similarity.
package cluster

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
	"github.com/oppradar/oppradar/internal/core/embeddings"
)

// DefaultThreshold is the cosine similarity above which two problem
// statements are considered the same complaint.
const DefaultThreshold = 0.82

// Engine clusters pain points with a single greedy pass over their problem
// embeddings.
type Engine struct {
	embedder  embeddings.Client
	threshold float32
	logger    *zerolog.Logger
}

func NewEngine(embedder embeddings.Client, threshold float64, logger *zerolog.Logger) *Engine {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}

	return &Engine{
		embedder:  embedder,
		threshold: float32(threshold),
		logger:    logger,
	}
}

type centroidCluster struct {
	centroid []float32
	members  []*domain.PainPoint
}

// Cluster embeds every problem statement in one batch and assigns each point
// to the best-matching existing cluster, or starts a new one. When the
// embedding call fails the pipeline must not die: every point becomes its own
// cluster instead.
func (e *Engine) Cluster(ctx context.Context, points []*domain.PainPoint) ([]*domain.PainPointCluster, error) {
	if len(points) == 0 {
		return nil, nil
	}

	texts := make([]string, len(points))
	for i, point := range points {
		texts[i] = point.Problem
	}

	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		e.logger.Warn().Err(err).Int("points", len(points)).Msg("embedding failed, falling back to singleton clusters")

		return e.singletons(points), nil
	}

	var clusters []*centroidCluster

	for i, point := range points {
		best := -1
		bestSim := e.threshold

		for j, cl := range clusters {
			sim := CosineSimilarity(vectors[i], cl.centroid)
			if sim > bestSim {
				best = j
				bestSim = sim
			}
		}

		if best == -1 {
			clusters = append(clusters, &centroidCluster{
				centroid: append([]float32(nil), vectors[i]...),
				members:  []*domain.PainPoint{point},
			})

			continue
		}

		clusters[best].add(vectors[i], point)
	}

	result := finalize(clusters)

	e.logger.Debug().Int("points", len(points)).Int("clusters", len(result)).Msg("clustered pain points")

	return result, nil
}

// add folds the vector into the running-mean centroid.
func (c *centroidCluster) add(vector []float32, point *domain.PainPoint) {
	n := float32(len(c.members))

	for i := range c.centroid {
		c.centroid[i] = (c.centroid[i]*n + vector[i]) / (n + 1)
	}

	c.members = append(c.members, point)
}

func (e *Engine) singletons(points []*domain.PainPoint) []*domain.PainPointCluster {
	clusters := make([]*centroidCluster, len(points))
	for i, point := range points {
		clusters[i] = &centroidCluster{members: []*domain.PainPoint{point}}
	}

	return finalize(clusters)
}

// finalize builds the read-only cluster records: representative text from the
// highest-engagement member, per-source engagement tallies, and a stable
// ordering by total engagement.
func finalize(clusters []*centroidCluster) []*domain.PainPointCluster {
	result := make([]*domain.PainPointCluster, 0, len(clusters))

	for _, cl := range clusters {
		out := &domain.PainPointCluster{
			Members:            cl.members,
			EngagementBySource: make(map[domain.SourceKind]int),
		}

		top := cl.members[0]

		for _, member := range cl.members {
			out.EngagementBySource[member.Source] += member.Engagement
			out.TotalEngagement += member.Engagement

			if member.Engagement > top.Engagement {
				top = member
			}
		}

		out.Representative = top.Problem
		result = append(result, out)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalEngagement > result[j].TotalEngagement
	})

	return result
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
