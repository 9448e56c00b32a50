// Package embeddings provides text embedding generation for contextmem.
//
// The Provider interface abstracts the remote text-to-vector backend.
// Decorators layer behavior onto any Provider: WithRetry adds bounded
// exponential backoff for transient failures, WithBreaker adds a circuit
// breaker, and WithCache adds a ristretto-backed embedding cache.
package embeddings

import (
	"context"
	"errors"
)

// Sentinel errors for the embedding taxonomy.
var (
	// ErrUnavailable indicates the embedding backend could not serve the
	// request after retry exhaustion.
	ErrUnavailable = errors.New("embedding backend unavailable")

	// ErrTimeout indicates the embedding call exceeded its deadline.
	ErrTimeout = errors.New("embedding request timed out")

	// ErrInvalidResponse indicates the backend returned a malformed or
	// wrong-dimension response.
	ErrInvalidResponse = errors.New("invalid embedding response")

	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Provider generates a fixed-dimension embedding for a text.
type Provider interface {
	// Embed returns the embedding vector for text. The call honors the
	// context deadline and may fail transiently.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension this provider produces.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}
