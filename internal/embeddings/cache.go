package embeddings

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	// MaxEntries bounds the number of cached embeddings.
	MaxEntries int64
}

// ApplyDefaults sets default values for unset fields.
func (c *CacheConfig) ApplyDefaults() {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 10_000
	}
}

// cacheProvider memoizes embeddings per text. Identical store/search texts
// skip the backend round trip entirely.
type cacheProvider struct {
	inner  Provider
	cache  *ristretto.Cache
	logger *zap.Logger
}

// WithCache wraps a provider with a ristretto-backed embedding cache keyed
// by text digest.
func WithCache(inner Provider, cfg CacheConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxEntries * 10, // ristretto admission heuristic
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	return &cacheProvider{inner: inner, cache: cache, logger: logger}, nil
}

func (p *cacheProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	key := sha256.Sum256([]byte(text))
	if cached, ok := p.cache.Get(key[:]); ok {
		CacheHitsTotal.Inc()
		return cached.([]float32), nil
	}
	CacheMissesTotal.Inc()

	vector, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key[:], vector, 1)
	return vector, nil
}

func (p *cacheProvider) Dimension() int { return p.inner.Dimension() }

func (p *cacheProvider) Close() error {
	p.cache.Close()
	return p.inner.Close()
}
