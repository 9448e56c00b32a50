package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls bounded exponential backoff for transient failures.
type RetryConfig struct {
	// MaxAttempts is the total attempt count, including the first call.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
}

// retryProvider retries transient failures of the wrapped provider.
type retryProvider struct {
	inner  Provider
	cfg    RetryConfig
	logger *zap.Logger
}

// WithRetry wraps a provider with bounded exponential backoff. Only
// transient failures (ErrUnavailable, ErrTimeout) are retried; validation
// and response-shape errors surface immediately.
func WithRetry(inner Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	return &retryProvider{inner: inner, cfg: cfg, logger: logger}
}

func (p *retryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	backoff := p.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		vector, err := p.inner.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		p.logger.Warn("embedding attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > p.cfg.MaxBackoff {
			backoff = p.cfg.MaxBackoff
		}
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %v", ErrUnavailable, p.cfg.MaxAttempts, lastErr)
}

func (p *retryProvider) Dimension() int { return p.inner.Dimension() }

func (p *retryProvider) Close() error { return p.inner.Close() }

// retryable reports whether an embedding failure is transient.
func retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
