package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

// IndexOpener creates the vector index backing a named level collection.
type IndexOpener interface {
	Open(name string) (vectorindex.Index, error)
}

// TierManager owns the three level stores and routes operations to the
// correct one. Cross-level operations are fully independent: no call ever
// holds two levels' locks at the same time.
type TierManager struct {
	stores map[Level]*LevelStore
	logger *zap.Logger
}

// NewTierManager builds the three level stores from their configs.
func NewTierManager(cfgs []LevelConfig, opener IndexOpener, logger *zap.Logger) (*TierManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stores := make(map[Level]*LevelStore, len(cfgs))
	for _, cfg := range cfgs {
		if _, err := ParseLevel(string(cfg.Level)); err != nil {
			return nil, err
		}
		if _, dup := stores[cfg.Level]; dup {
			return nil, fmt.Errorf("%w: duplicate level %s", ErrValidation, cfg.Level)
		}
		index, err := opener.Open("contexts_" + string(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("opening index for level %s: %w", cfg.Level, err)
		}
		store, err := NewLevelStore(cfg, index, logger)
		if err != nil {
			return nil, err
		}
		stores[cfg.Level] = store
	}
	for _, level := range AllLevels() {
		if _, ok := stores[level]; !ok {
			return nil, fmt.Errorf("%w: missing config for level %s", ErrValidation, level)
		}
	}

	return &TierManager{stores: stores, logger: logger}, nil
}

// store returns the level store for a level.
func (m *TierManager) store(level Level) (*LevelStore, error) {
	s, ok := m.stores[level]
	if !ok {
		return nil, fmt.Errorf("%w: unknown level %q", ErrValidation, level)
	}
	return s, nil
}

// Store routes an item to its level.
func (m *TierManager) Store(ctx context.Context, item Item) error {
	s, err := m.store(item.Level)
	if err != nil {
		return err
	}
	return s.Put(ctx, item)
}

// Get returns an item by level and id.
func (m *TierManager) Get(ctx context.Context, level Level, id string) (Item, error) {
	s, err := m.store(level)
	if err != nil {
		return Item{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an item by level and id.
func (m *TierManager) Delete(ctx context.Context, level Level, id string) (bool, error) {
	s, err := m.store(level)
	if err != nil {
		return false, err
	}
	return s.Delete(ctx, id)
}

// Clear empties one level, leaving the others untouched.
func (m *TierManager) Clear(ctx context.Context, level Level) (int, error) {
	s, err := m.store(level)
	if err != nil {
		return 0, err
	}
	return s.Clear(ctx)
}

// Search fans out to the given levels (all when empty) in parallel,
// collecting up to k candidates from each. Every level is read-locked
// independently; results are merged by value after all locks are released.
func (m *TierManager) Search(ctx context.Context, embedding []float32, k int, filter vectorindex.Filter, levels []Level) ([]ScoredItem, error) {
	start := time.Now()
	defer func() { SearchDuration.Observe(time.Since(start).Seconds()) }()

	if len(levels) == 0 {
		levels = AllLevels()
	}
	targets := make([]*LevelStore, 0, len(levels))
	for _, level := range levels {
		s, err := m.store(level)
		if err != nil {
			return nil, err
		}
		targets = append(targets, s)
	}

	// One result slot per level; no shared merge buffer across goroutines.
	perLevel := make([][]ScoredItem, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, s := range targets {
		wg.Add(1)
		go func(i int, s *LevelStore) {
			defer wg.Done()
			perLevel[i], errs[i] = s.Search(ctx, embedding, k, filter)
		}(i, s)
	}
	wg.Wait()

	var merged []ScoredItem
	for i := range targets {
		if errs[i] != nil {
			return nil, errs[i]
		}
		merged = append(merged, perLevel[i]...)
	}
	return merged, nil
}

// Sweep expires stale items on every level. Each level is swept under its
// own lock; the operation is idempotent.
func (m *TierManager) Sweep(ctx context.Context) int {
	removed := 0
	for _, level := range AllLevels() {
		removed += m.stores[level].Sweep(ctx)
	}
	return removed
}

// Stats reports per-level counts.
func (m *TierManager) Stats() map[Level]LevelStats {
	stats := make(map[Level]LevelStats, len(m.stores))
	for level, s := range m.stores {
		stats[level] = s.Stats()
	}
	return stats
}
