package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// createdAtKey is the reserved metadata key carrying the entry creation time
// for recency tie-breaking. User metadata may not use it.
const createdAtKey = "_created_at_unixnano"

// ChromemIndex implements Index over an embedded chromem-go collection.
//
// chromem-go persists collections to gob files, so this backend survives
// restarts. Embeddings are always supplied explicitly; chromem's own
// embedding functions are never invoked.
type ChromemIndex struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dimension  int
}

// NewChromemIndex opens (or creates) a named collection on the given DB.
func NewChromemIndex(db *chromem.DB, name string, dimension int) (*ChromemIndex, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: chromem DB required", ErrInvalidConfig)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}

	collection, err := db.GetOrCreateCollection(name, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}

	return &ChromemIndex{
		db:         db,
		collection: collection,
		name:       name,
		dimension:  dimension,
	}, nil
}

// rejectEmbeddingFunc guards against chromem generating embeddings itself.
// Every document and query carries an explicit embedding.
func rejectEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings must be provided explicitly")
}

// Insert adds or replaces an entry.
func (idx *ChromemIndex) Insert(ctx context.Context, entry Entry) error {
	if len(entry.Embedding) != idx.dimension {
		return fmt.Errorf("%w: got %d, index dimension %d", ErrDimensionMismatch, len(entry.Embedding), idx.dimension)
	}

	metadata := make(map[string]string, len(entry.Metadata)+1)
	for k, v := range entry.Metadata {
		metadata[k] = v
	}
	metadata[createdAtKey] = strconv.FormatInt(entry.CreatedAt.UnixNano(), 10)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.collection.AddDocument(ctx, chromem.Document{
		ID:        entry.ID,
		Metadata:  metadata,
		Embedding: entry.Embedding,
	}); err != nil {
		return fmt.Errorf("adding document %s: %w", entry.ID, err)
	}
	return nil
}

// Delete removes an entry by id.
func (idx *ChromemIndex) Delete(ctx context.Context, id string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.collection.GetByID(ctx, id); err != nil {
		return false, nil
	}
	if err := idx.collection.Delete(ctx, nil, nil, id); err != nil {
		return false, fmt.Errorf("deleting document %s: %w", id, err)
	}
	return true, nil
}

// Query returns the top-k entries by similarity.
//
// chromem ranks internally; the recency tie-break is applied to the
// returned window using the creation timestamp stored in metadata.
func (idx *ChromemIndex) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Result, error) {
	if len(embedding) != idx.dimension {
		return nil, fmt.Errorf("%w: query got %d, index dimension %d", ErrDimensionMismatch, len(embedding), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	var where map[string]string
	if len(filter) > 0 {
		where = map[string]string(filter)
	}

	hits, err := idx.collection.QueryEmbedding(ctx, embedding, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", idx.name, err)
	}

	results := make([]Result, len(hits))
	created := make([]int64, len(hits))
	for i, hit := range hits {
		results[i] = Result{ID: hit.ID, Score: hit.Similarity}
		created[i], _ = strconv.ParseInt(hit.Metadata[createdAtKey], 10, 64)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return created[i] > created[j]
	})
	return results, nil
}

// Len returns the number of entries.
func (idx *ChromemIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.collection.Count()
}

// Clear removes all entries by dropping and recreating the collection.
func (idx *ChromemIndex) Clear(ctx context.Context) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := idx.collection.Count()
	if err := idx.db.DeleteCollection(idx.name); err != nil {
		return 0, fmt.Errorf("deleting collection %s: %w", idx.name, err)
	}
	collection, err := idx.db.GetOrCreateCollection(idx.name, nil, rejectEmbeddingFunc)
	if err != nil {
		return 0, fmt.Errorf("recreating collection %s: %w", idx.name, err)
	}
	idx.collection = collection
	return removed, nil
}

// ensure interface compliance at compile time.
var (
	_ Index = (*MemoryIndex)(nil)
	_ Index = (*ChromemIndex)(nil)
)
