package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an exact brute-force cosine similarity index.
//
// Candidate sets per level are small enough (hundreds to low thousands) that
// a linear scan outperforms an ANN structure and avoids its minimum-size
// pathologies. All operations are safe for concurrent use.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]Entry
}

// NewMemoryIndex creates an exact index with a fixed embedding dimension.
func NewMemoryIndex(dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return &MemoryIndex{
		dimension: dimension,
		entries:   make(map[string]Entry),
	}, nil
}

// Insert adds or replaces an entry.
func (idx *MemoryIndex) Insert(_ context.Context, entry Entry) error {
	if len(entry.Embedding) != idx.dimension {
		return fmt.Errorf("%w: got %d, index dimension %d", ErrDimensionMismatch, len(entry.Embedding), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[entry.ID] = entry
	return nil
}

// Delete removes an entry by id.
func (idx *MemoryIndex) Delete(_ context.Context, id string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[id]; !ok {
		return false, nil
	}
	delete(idx.entries, id)
	return true, nil
}

// Query returns the top-k entries by cosine similarity, ties broken by the
// newer CreatedAt.
func (idx *MemoryIndex) Query(_ context.Context, embedding []float32, k int, filter Filter) ([]Result, error) {
	if len(embedding) != idx.dimension {
		return nil, fmt.Errorf("%w: query got %d, index dimension %d", ErrDimensionMismatch, len(embedding), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		entry Entry
		score float32
	}
	candidates := make([]scored, 0, len(idx.entries))
	for _, entry := range idx.entries {
		if !filter.matches(entry.Metadata) {
			continue
		}
		candidates = append(candidates, scored{
			entry: entry,
			score: cosineSimilarity(embedding, entry.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.CreatedAt.After(candidates[j].entry.CreatedAt)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{ID: c.entry.ID, Score: c.score}
	}
	return results, nil
}

// Len returns the number of entries.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear removes all entries.
func (idx *MemoryIndex) Clear(_ context.Context) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := len(idx.entries)
	idx.entries = make(map[string]Entry)
	return removed, nil
}

// matches reports whether metadata satisfies every filter pair.
func (f Filter) matches(metadata map[string]string) bool {
	for key, want := range f {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// cosineSimilarity computes cosine similarity between two vectors.
//
// Formula: cos(θ) = (A · B) / (||A|| * ||B||)
// Returns a value in [-1, 1] where 1 = identical direction, 0 = orthogonal.
func cosineSimilarity(a, b []float32) float32 {
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (magA * magB))
}
