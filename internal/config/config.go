// Package config provides configuration loading for contextmem.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for the contextmem daemon.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Index     IndexConfig     `koanf:"index"`
	Memory    MemoryConfig    `koanf:"memory"`
	Tokens    TokensConfig    `koanf:"tokens"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// AuthToken is the static bearer token required on API routes.
	// Authentication is disabled when unset.
	AuthToken Secret `koanf:"auth_token"`

	// BodyLimit is the maximum request body size (echo syntax, e.g. "1M").
	BodyLimit string `koanf:"body_limit"`

	// ShutdownTimeout bounds graceful shutdown drain time.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	// Provider is "tei" (remote HTTP API) or "mock" (deterministic, for dev/test).
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	APIKey   Secret `koanf:"api_key"`

	// Dimension is the fixed embedding dimension for this deployment.
	Dimension int `koanf:"dimension"`

	// Timeout is the per-request deadline for the embedding backend.
	Timeout Duration `koanf:"timeout"`

	Retry   RetryConfig   `koanf:"retry"`
	Cache   CacheConfig   `koanf:"cache"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// RetryConfig holds retry behavior for transient embedding failures.
type RetryConfig struct {
	MaxAttempts    int      `koanf:"max_attempts"`
	InitialBackoff Duration `koanf:"initial_backoff"`
	MaxBackoff     Duration `koanf:"max_backoff"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled    bool  `koanf:"enabled"`
	MaxEntries int64 `koanf:"max_entries"`
}

// BreakerConfig holds circuit breaker settings for the embedding backend.
type BreakerConfig struct {
	Enabled             bool     `koanf:"enabled"`
	ConsecutiveFailures uint32   `koanf:"consecutive_failures"`
	OpenTimeout         Duration `koanf:"open_timeout"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	// Backend is "memory" (exact in-process search) or "chromem" (persistent).
	Backend string `koanf:"backend"`
	// Path is the persistence directory for the chromem backend.
	Path string `koanf:"path"`
	// Compress enables gzip compression for chromem persistence.
	Compress bool `koanf:"compress"`
}

// LevelConfig holds retention settings for a single memory level.
type LevelConfig struct {
	// Capacity is the maximum item count. Zero or negative means unbounded.
	Capacity int `koanf:"capacity"`
	// TTL is the item time-to-live. Zero means no expiry.
	TTL Duration `koanf:"ttl"`
}

// MemoryConfig holds per-level retention and sweep settings.
type MemoryConfig struct {
	Immediate LevelConfig `koanf:"immediate"`
	ShortTerm LevelConfig `koanf:"short_term"`
	LongTerm  LevelConfig `koanf:"long_term"`

	// SweepInterval is the period of the background TTL sweep.
	SweepInterval Duration `koanf:"sweep_interval"`

	// SearchK is the per-level candidate count collected during fan-out.
	SearchK int `koanf:"search_k"`
}

// TokensConfig holds token counting settings.
type TokensConfig struct {
	// Encoding is the tiktoken encoding name (e.g. cl100k_base).
	Encoding string `koanf:"encoding"`
	// CharsPerToken is the heuristic fallback ratio when the encoding
	// cannot be loaded.
	CharsPerToken float64 `koanf:"chars_per_token"`
}

// NewDefaultConfig returns configuration with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8081,
			BodyLimit:       "1M",
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Embedding: EmbeddingConfig{
			Provider:  "tei",
			BaseURL:   "http://localhost:8080",
			Model:     "BAAI/bge-large-en-v1.5",
			Dimension: 1024,
			Timeout:   Duration(10 * time.Second),
			Retry: RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: Duration(100 * time.Millisecond),
				MaxBackoff:     Duration(2 * time.Second),
			},
			Cache: CacheConfig{
				Enabled:    true,
				MaxEntries: 10_000,
			},
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				OpenTimeout:         Duration(30 * time.Second),
			},
		},
		Index: IndexConfig{
			Backend: "memory",
			Path:    "~/.config/contextmem/index",
		},
		Memory: MemoryConfig{
			Immediate: LevelConfig{Capacity: 10},
			ShortTerm: LevelConfig{Capacity: 100, TTL: Duration(time.Hour)},
			LongTerm:  LevelConfig{Capacity: 10_000},
			// Immediate has no TTL by default; session FIFO bounds it.
			SweepInterval: Duration(time.Minute),
			SearchK:       20,
		},
		Tokens: TokensConfig{
			Encoding:      "cl100k_base",
			CharsPerToken: 4.0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging format %q (want json or console)", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.Embedding.Provider {
	case "tei", "mock":
	default:
		return fmt.Errorf("%w: embedding provider %q (want tei or mock)", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.Provider == "tei" && c.Embedding.BaseURL == "" {
		return fmt.Errorf("%w: embedding base_url required for tei provider", ErrInvalidConfig)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidConfig)
	}
	if c.Embedding.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry max_attempts must be at least 1", ErrInvalidConfig)
	}
	switch c.Index.Backend {
	case "memory", "chromem":
	default:
		return fmt.Errorf("%w: index backend %q (want memory or chromem)", ErrInvalidConfig, c.Index.Backend)
	}
	if c.Index.Backend == "chromem" && c.Index.Path == "" {
		return fmt.Errorf("%w: index path required for chromem backend", ErrInvalidConfig)
	}
	if c.Memory.SearchK <= 0 {
		return fmt.Errorf("%w: memory search_k must be positive", ErrInvalidConfig)
	}
	if c.Memory.SweepInterval.Duration() <= 0 {
		return fmt.Errorf("%w: memory sweep_interval must be positive", ErrInvalidConfig)
	}
	if c.Tokens.CharsPerToken <= 0 {
		return fmt.Errorf("%w: tokens chars_per_token must be positive", ErrInvalidConfig)
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("%w: rate limit rps and burst must be positive", ErrInvalidConfig)
		}
	}
	return nil
}
