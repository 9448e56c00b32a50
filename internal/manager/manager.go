// Package manager implements the context manager facade.
//
// The facade is the only component the transport layer talks to. It
// validates input, assigns ids and timestamps, orchestrates the embedding
// client outside any level lock, and translates collaborator failures into
// the shared error taxonomy. It keeps no cross-call state beyond what the
// levels themselves store.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/embeddings"
	"github.com/fyrsmithlabs/contextmem/internal/memory"
	"github.com/fyrsmithlabs/contextmem/internal/tokens"
	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

const defaultSearchLimit = 10

// Manager is the context manager facade.
type Manager struct {
	tiers     *memory.TierManager
	embedder  embeddings.Provider
	counter   tokens.Counter
	assembler memory.Assembler
	logger    *zap.Logger

	// searchK is the per-level candidate count during fan-out.
	searchK int

	// injectable for tests
	now   func() time.Time
	newID func() string
}

// New creates a manager over its collaborators.
func New(tiers *memory.TierManager, embedder embeddings.Provider, counter tokens.Counter, searchK int, logger *zap.Logger) (*Manager, error) {
	if tiers == nil || embedder == nil || counter == nil {
		return nil, fmt.Errorf("%w: tiers, embedder and counter are required", memory.ErrValidation)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if searchK <= 0 {
		searchK = 20
	}
	return &Manager{
		tiers:    tiers,
		embedder: embedder,
		counter:  counter,
		logger:   logger,
		searchK:  searchK,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}, nil
}

// Store validates, embeds, and persists a new context item. On embedding
// failure the operation has no side effects.
func (m *Manager) Store(ctx context.Context, req StoreRequest) (memory.Item, error) {
	if req.Text == "" {
		return memory.Item{}, fmt.Errorf("%w: text must not be empty", memory.ErrValidation)
	}
	if req.Priority < 0 {
		return memory.Item{}, fmt.Errorf("%w: priority must not be negative", memory.ErrValidation)
	}
	level, err := memory.ParseLevel(req.Level)
	if err != nil {
		return memory.Item{}, err
	}

	// Embedding happens before any level lock is taken; backend latency
	// never blocks concurrent traffic on unrelated items.
	embedding, err := m.embedder.Embed(ctx, req.Text)
	if err != nil {
		return memory.Item{}, err
	}

	now := m.now()
	item := memory.Item{
		ID:             m.newID(),
		Text:           req.Text,
		Embedding:      embedding,
		Metadata:       req.Metadata,
		Priority:       req.Priority,
		SessionID:      req.SessionID,
		Level:          level,
		TokenCount:     m.counter.Count(req.Text),
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	if err := m.tiers.Store(ctx, item); err != nil {
		return memory.Item{}, err
	}

	m.logger.Debug("context stored",
		zap.String("id", item.ID),
		zap.String("level", string(level)),
		zap.Int("token_count", item.TokenCount),
	)
	return item, nil
}

// Search embeds the query once, fans out to the selected levels, and packs
// the merged candidates into an ordered, budget-respecting result.
func (m *Manager) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.Query == "" {
		return SearchResponse{}, fmt.Errorf("%w: query must not be empty", memory.ErrValidation)
	}
	if req.MaxTokens < 0 {
		return SearchResponse{}, fmt.Errorf("%w: max_tokens must not be negative", memory.ErrValidation)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var levels []memory.Level
	if req.Level != "" {
		level, err := memory.ParseLevel(req.Level)
		if err != nil {
			return SearchResponse{}, err
		}
		levels = []memory.Level{level}
	}

	var filter vectorindex.Filter
	if req.SessionID != "" {
		filter = vectorindex.Filter{memory.SessionMetadataKey: req.SessionID}
	}

	start := m.now()
	embedding, err := m.embedder.Embed(ctx, req.Query)
	if err != nil {
		return SearchResponse{}, err
	}

	k := m.searchK
	if limit > k {
		k = limit
	}
	candidates, err := m.tiers.Search(ctx, embedding, k, filter, levels)
	if err != nil {
		return SearchResponse{}, err
	}

	assembled := m.assembler.Assemble(candidates, limit, req.MaxTokens)
	resp := SearchResponse{
		Items:       assembled.Items,
		TotalTokens: assembled.TotalTokens,
		Levels:      assembled.LevelDistribution,
		Took:        m.now().Sub(start),
	}

	m.logger.Debug("context searched",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(resp.Items)),
		zap.Int("total_tokens", resp.TotalTokens),
		zap.Duration("took", resp.Took),
	)
	return resp, nil
}

// Get returns a single item by level and id.
func (m *Manager) Get(ctx context.Context, levelStr, id string) (memory.Item, error) {
	level, err := memory.ParseLevel(levelStr)
	if err != nil {
		return memory.Item{}, err
	}
	if id == "" {
		return memory.Item{}, fmt.Errorf("%w: id must not be empty", memory.ErrValidation)
	}
	return m.tiers.Get(ctx, level, id)
}

// Delete removes an item. Returns found=false when the id is absent from
// the given level, so a second delete of the same id is not an error.
func (m *Manager) Delete(ctx context.Context, levelStr, id string) (bool, error) {
	level, err := memory.ParseLevel(levelStr)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("%w: id must not be empty", memory.ErrValidation)
	}
	return m.tiers.Delete(ctx, level, id)
}

// Clear empties one level and returns the number of items removed.
func (m *Manager) Clear(ctx context.Context, levelStr string) (int, error) {
	level, err := memory.ParseLevel(levelStr)
	if err != nil {
		return 0, err
	}
	return m.tiers.Clear(ctx, level)
}

// Stats reports per-level item and token counts.
func (m *Manager) Stats() map[memory.Level]memory.LevelStats {
	return m.tiers.Stats()
}
