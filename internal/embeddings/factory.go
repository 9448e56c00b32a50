package embeddings

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/config"
)

// NewProvider builds the configured provider stack: base backend, then
// circuit breaker, then retry, then cache (outermost, so cache hits skip
// the whole chain).
func NewProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var provider Provider
	switch cfg.Provider {
	case "mock":
		provider = NewMockProvider(cfg.Dimension)
	case "tei", "":
		tei, err := NewTEIProvider(TEIConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout.Duration(),
		}, logger)
		if err != nil {
			return nil, err
		}
		provider = tei
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}

	if cfg.Breaker.Enabled {
		provider = WithBreaker(provider, BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout.Duration(),
		}, logger)
	}
	provider = WithRetry(provider, RetryConfig{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff.Duration(),
		MaxBackoff:     cfg.Retry.MaxBackoff.Duration(),
	}, logger)
	if cfg.Cache.Enabled {
		cached, err := WithCache(provider, CacheConfig{MaxEntries: cfg.Cache.MaxEntries}, logger)
		if err != nil {
			return nil, err
		}
		provider = cached
	}
	return provider, nil
}
