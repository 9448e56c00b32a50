package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// record is an item plus its access clock. The access time is atomic so
// search/get hits can touch it while holding only the read lock.
type record struct {
	item   Item // immutable after insert
	access atomic.Int64
}

func newRecord(item Item) *record {
	r := &record{item: item}
	r.access.Store(item.LastAccessedAt.UnixNano())
	return r
}

func (r *record) touch(t time.Time) { r.access.Store(t.UnixNano()) }

func (r *record) lastAccess() time.Time { return time.Unix(0, r.access.Load()) }

// snapshot returns a copy of the item with the current access time filled in.
func (r *record) snapshot() Item {
	item := r.item
	item.LastAccessedAt = r.lastAccess()
	return item
}

// LevelStore wraps one vector index and a metadata table and enforces a
// single level's retention policy.
//
// A put is atomic from the caller's point of view: index and table are
// mutated under the write lock, and capacity eviction runs before the lock
// is released, so the level never exceeds its capacity at any observable
// point between operations.
type LevelStore struct {
	mu     sync.RWMutex
	cfg    LevelConfig
	index  vectorindex.Index
	items  map[string]*record
	tokens int
	policy evictionPolicy
	logger *zap.Logger
}

// NewLevelStore creates a level store with the policy variant for its level.
func NewLevelStore(cfg LevelConfig, index vectorindex.Index, logger *zap.Logger) (*LevelStore, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index required for level %s", ErrValidation, cfg.Level)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LevelStore{
		cfg:    cfg,
		index:  index,
		items:  make(map[string]*record),
		policy: policyForLevel(cfg.Level),
		logger: logger.With(zap.String("level", string(cfg.Level))),
	}, nil
}

// Level returns the level this store serves.
func (s *LevelStore) Level() Level { return s.cfg.Level }

// Put inserts an item, expires stale items lazily, and evicts until the
// level is back under capacity. Synchronous with the caller.
func (s *LevelStore) Put(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timeNow()
	s.expireLocked(ctx, now)

	if err := s.index.Insert(ctx, vectorindex.Entry{
		ID:        item.ID,
		Embedding: item.Embedding,
		Metadata:  indexMetadata(item),
		CreatedAt: item.CreatedAt,
	}); err != nil {
		OperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("indexing item %s: %w", item.ID, err)
	}

	if prev, ok := s.items[item.ID]; ok {
		s.tokens -= prev.item.TokenCount
	}
	s.items[item.ID] = newRecord(item)
	s.tokens += item.TokenCount

	s.evictLocked(ctx, &item)
	s.publishGauges()
	OperationsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

// Get returns an item by id, touching its access time. Expired items are
// unreachable even before the sweep removes them.
func (s *LevelStore) Get(ctx context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[id]
	if !ok || s.expired(r, timeNow()) {
		OperationsTotal.WithLabelValues("get", "error").Inc()
		return Item{}, fmt.Errorf("%w: id %s in level %s", ErrNotFound, id, s.cfg.Level)
	}
	r.touch(timeNow())
	OperationsTotal.WithLabelValues("get", "ok").Inc()
	return r.snapshot(), nil
}

// Delete removes an item from both index and table. Returns found=false
// without error when the id is absent, so a racing sweep or double delete
// is a no-op rather than a failure.
func (s *LevelStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[id]
	if !ok {
		OperationsTotal.WithLabelValues("delete", "ok").Inc()
		return false, nil
	}
	if _, err := s.index.Delete(ctx, id); err != nil {
		OperationsTotal.WithLabelValues("delete", "error").Inc()
		return false, fmt.Errorf("deleting item %s from index: %w", id, err)
	}
	delete(s.items, id)
	s.tokens -= r.item.TokenCount
	s.publishGauges()
	OperationsTotal.WithLabelValues("delete", "ok").Inc()
	return true, nil
}

// Clear empties the level entirely and returns the number of items removed.
func (s *LevelStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.index.Clear(ctx); err != nil {
		OperationsTotal.WithLabelValues("clear", "error").Inc()
		return 0, fmt.Errorf("clearing index for level %s: %w", s.cfg.Level, err)
	}
	removed := len(s.items)
	s.items = make(map[string]*record)
	s.tokens = 0
	s.publishGauges()
	OperationsTotal.WithLabelValues("clear", "ok").Inc()
	s.logger.Info("level cleared", zap.Int("removed", removed))
	return removed, nil
}

// Search queries the level's index and touches each returned item. Expired
// items are filtered out of the candidates.
func (s *LevelStore) Search(ctx context.Context, embedding []float32, k int, filter vectorindex.Filter) ([]ScoredItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.index.Query(ctx, embedding, k, filter)
	if err != nil {
		OperationsTotal.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("querying level %s: %w", s.cfg.Level, err)
	}

	now := timeNow()
	hits := make([]ScoredItem, 0, len(results))
	for _, res := range results {
		r, ok := s.items[res.ID]
		if !ok || s.expired(r, now) {
			continue
		}
		r.touch(now)
		hits = append(hits, ScoredItem{Item: r.snapshot(), Score: res.Score})
	}
	OperationsTotal.WithLabelValues("search", "ok").Inc()
	return hits, nil
}

// Count returns the current item count, including not-yet-swept expired
// items.
func (s *LevelStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Stats returns item and token counts for reporting.
func (s *LevelStore) Stats() LevelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LevelStats{Items: len(s.items), TotalTokens: s.tokens}
}

// Sweep removes expired items and returns the number removed. Safe to run
// concurrently with any other operation; a delete racing the sweep resolves
// as whoever acts first wins.
func (s *LevelStore) Sweep(ctx context.Context) int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.expireLocked(ctx, timeNow())
	if removed > 0 {
		s.publishGauges()
		s.logger.Debug("ttl sweep removed items", zap.Int("removed", removed))
	}
	return removed
}

// expired reports whether a record is past the level TTL at time now.
func (s *LevelStore) expired(r *record, now time.Time) bool {
	return s.cfg.TTL > 0 && now.Sub(r.item.CreatedAt) > s.cfg.TTL
}

// expireLocked removes expired records. Caller holds the write lock.
func (s *LevelStore) expireLocked(ctx context.Context, now time.Time) int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	removed := 0
	for id, r := range s.items {
		if !s.expired(r, now) {
			continue
		}
		if _, err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to expire item from index", zap.String("id", id), zap.Error(err))
			continue
		}
		delete(s.items, id)
		s.tokens -= r.item.TokenCount
		removed++
		EvictionsTotal.WithLabelValues(string(s.cfg.Level), evictReasonTTL).Inc()
	}
	return removed
}

// evictLocked evicts per policy until count <= capacity. Caller holds the
// write lock. incoming is the item whose put triggered the check.
func (s *LevelStore) evictLocked(ctx context.Context, incoming *Item) {
	if s.cfg.Capacity <= 0 {
		return
	}
	for len(s.items) > s.cfg.Capacity {
		victimID := s.policy.victim(s.items, incoming)
		if victimID == "" {
			return
		}
		r := s.items[victimID]
		if _, err := s.index.Delete(ctx, victimID); err != nil {
			s.logger.Warn("failed to evict item from index", zap.String("id", victimID), zap.Error(err))
			return
		}
		delete(s.items, victimID)
		s.tokens -= r.item.TokenCount
		EvictionsTotal.WithLabelValues(string(s.cfg.Level), evictReasonCapacity).Inc()
		s.logger.Debug("evicted item",
			zap.String("id", victimID),
			zap.String("policy", s.policy.name()),
		)
	}
}

// indexMetadata merges caller metadata with the session scoping key so
// searches can filter by session at the index.
func indexMetadata(item Item) map[string]string {
	if len(item.Metadata) == 0 && item.SessionID == "" {
		return nil
	}
	out := make(map[string]string, len(item.Metadata)+1)
	for k, v := range item.Metadata {
		out[k] = v
	}
	if item.SessionID != "" {
		out[SessionMetadataKey] = item.SessionID
	}
	return out
}

// publishGauges updates the per-level prometheus gauges. Caller holds the
// write lock.
func (s *LevelStore) publishGauges() {
	ItemsTotal.WithLabelValues(string(s.cfg.Level)).Set(float64(len(s.items)))
	TokensTotal.WithLabelValues(string(s.cfg.Level)).Set(float64(s.tokens))
}
