// Package vectorindex provides per-level vector indices for semantic search.
//
// An Index stores fixed-dimension embeddings keyed by id and answers
// k-nearest-neighbor queries by cosine similarity with optional exact-match
// metadata filtering. Two backends exist: an exact in-process index
// (default) and a chromem-go backed index with persistence.
package vectorindex

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for index operations.
var (
	// ErrDimensionMismatch is returned when an embedding's length disagrees
	// with the index's fixed dimension. This is a programmer-error class and
	// is never silently coerced.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid index configuration")
)

// Entry is a vector plus the metadata the index can filter and tie-break on.
type Entry struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
	CreatedAt time.Time
}

// Result is a single query hit.
type Result struct {
	ID    string
	Score float32
}

// Filter restricts query candidates by exact metadata match. All pairs must
// match. Filtering never changes the relative ranking of surviving
// candidates.
type Filter map[string]string

// Index is the per-level vector index contract.
type Index interface {
	// Insert adds or replaces an entry. Returns ErrDimensionMismatch if the
	// embedding length disagrees with the index dimension.
	Insert(ctx context.Context, entry Entry) error

	// Delete removes an entry by id. Returns found=false (no error) when the
	// id is absent so callers can treat delete as idempotent.
	Delete(ctx context.Context, id string) (bool, error)

	// Query returns up to k results ordered by descending cosine similarity.
	// Ties are broken by most recent CreatedAt first.
	Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Result, error)

	// Len returns the number of entries.
	Len() int

	// Clear removes all entries and returns the number removed.
	Clear(ctx context.Context) (int, error)
}
