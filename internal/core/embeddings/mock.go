package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// LCG constants for deterministic pseudo-random vector generation.
const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407

	seedShift  = 33
	floatScale = 0x40000000

	mockDimensions = 64
)

// Mock generates deterministic embeddings from input text hashes: identical
// texts always map to identical (unit-length) vectors.
type Mock struct {
	dimensions int

	// Err, when set, is returned by every EmbedBatch call. Used to test
	// the clustering fallback path.
	Err error
}

// NewMock creates a mock embedding client.
func NewMock() *Mock {
	return &Mock{dimensions: mockDimensions}
}

func (m *Mock) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.embed(text)
	}

	return vectors, nil
}

func (m *Mock) embed(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // fnv.Write never returns an error
	seed := h.Sum64()

	vec := make([]float32, m.dimensions)
	for i := range vec {
		seed = seed*lcgMultiplier + lcgIncrement
		//nolint:gosec // intentional uint64->int64 conversion for pseudo-random generation
		vec[i] = float32(int64(seed>>seedShift)-floatScale) / float32(floatScale)
	}

	return normalizeVector(vec)
}

func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	if sum == 0 {
		return vec
	}

	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}
