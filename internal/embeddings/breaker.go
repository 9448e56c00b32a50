package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig configures the circuit breaker around the embedding backend.
type BreakerConfig struct {
	// ConsecutiveFailures is the failure count that opens the circuit.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the circuit stays open before a half-open
	// probe is allowed.
	OpenTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *BreakerConfig) ApplyDefaults() {
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
}

// breakerProvider fails fast while the embedding backend is down, so a
// broken backend does not stall every store/search request for its full
// timeout-and-retry budget.
type breakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[[]float32]
}

// WithBreaker wraps a provider with a circuit breaker. While the circuit is
// open, Embed returns ErrUnavailable immediately.
func WithBreaker(inner Provider, cfg BreakerConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	cb := gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "embeddings",
		MaxRequests: 1, // one probe in half-open state
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Caller mistakes must not trip the breaker.
			return err == nil || errors.Is(err, ErrEmptyInput)
		},
	})

	return &breakerProvider{inner: inner, breaker: cb}
}

func (p *breakerProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.breaker.Execute(func() ([]float32, error) {
		return p.inner.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return vector, nil
}

func (p *breakerProvider) Dimension() int { return p.inner.Dimension() }

func (p *breakerProvider) Close() error { return p.inner.Close() }
