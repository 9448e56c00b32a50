package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/config"
)

// TEIConfig holds configuration for the TEI-style HTTP embedding backend.
type TEIConfig struct {
	// BaseURL is the base URL for the embedding API.
	BaseURL string

	// Model is the embedding model name, sent for multi-model backends.
	Model string

	// APIKey is the bearer token (optional for self-hosted TEI).
	APIKey config.Secret

	// Dimension is the expected embedding dimension. Responses with a
	// different length are rejected as ErrInvalidResponse.
	Dimension int

	// Timeout is the per-request deadline.
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *TEIConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Dimension == 0 {
		c.Dimension = 1024
	}
}

// Validate validates the configuration.
func (c *TEIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// TEIProvider generates embeddings via a TEI-compatible HTTP API.
type TEIProvider struct {
	config  TEIConfig
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

// NewTEIProvider creates an HTTP embedding provider.
func NewTEIProvider(cfg TEIConfig, logger *zap.Logger) (*TEIProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &TEIProvider{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: NewMetrics(logger),
	}, nil
}

// teiRequest is the request body for the TEI embed endpoint.
type teiRequest struct {
	Inputs   interface{} `json:"inputs"`
	Truncate bool        `json:"truncate"`
}

// Embed generates an embedding for a single text.
func (p *TEIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	vector, err := p.embed(ctx, text)
	p.metrics.RecordEmbed(ctx, p.config.Model, time.Since(start), err)
	return vector, err
}

func (p *TEIProvider) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: []string{text}, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey.IsSet() {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey.Value())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: backend returned status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: backend returned status %d", ErrInvalidResponse, resp.StatusCode)
	}

	// TEI returns one embedding per input: [][]float32.
	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %v", ErrInvalidResponse, err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrInvalidResponse, len(embeddings))
	}
	if len(embeddings[0]) != p.config.Dimension {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", ErrInvalidResponse, p.config.Dimension, len(embeddings[0]))
	}
	return embeddings[0], nil
}

// Dimension returns the configured embedding dimension.
func (p *TEIProvider) Dimension() int { return p.config.Dimension }

// Close releases HTTP resources.
func (p *TEIProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
