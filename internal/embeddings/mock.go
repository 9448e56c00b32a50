package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider generates deterministic embeddings from a text hash. It
// serves dev mode and tests: identical texts map to identical unit vectors,
// so round-trip search behaves like a real backend without network access.
type MockProvider struct {
	dimension int
}

// NewMockProvider creates a mock provider with the given dimension.
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 1024
	}
	return &MockProvider{dimension: dimension}
}

// Embed creates a deterministic embedding from the text hash.
func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimension)
	for i := range embedding {
		// LCG keyed by the text hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimension returns the embedding dimension.
func (m *MockProvider) Dimension() int { return m.dimension }

// Close is a no-op.
func (m *MockProvider) Close() error { return nil }

// normalize converts an embedding to a unit vector.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
