package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"CONTEXTMEM_SERVER_PORT", "server.port"},
		{"CONTEXTMEM_SERVER_AUTH_TOKEN", "server.auth_token"},
		{"CONTEXTMEM_SERVER_RATE_LIMIT_RPS", "server.rate_limit.rps"},
		{"CONTEXTMEM_LOGGING_LEVEL", "logging.level"},
		{"CONTEXTMEM_EMBEDDING_BASE_URL", "embedding.base_url"},
		{"CONTEXTMEM_EMBEDDING_RETRY_MAX_ATTEMPTS", "embedding.retry.max_attempts"},
		{"CONTEXTMEM_EMBEDDING_CACHE_MAX_ENTRIES", "embedding.cache.max_entries"},
		{"CONTEXTMEM_EMBEDDING_BREAKER_CONSECUTIVE_FAILURES", "embedding.breaker.consecutive_failures"},
		{"CONTEXTMEM_INDEX_BACKEND", "index.backend"},
		{"CONTEXTMEM_MEMORY_SHORT_TERM_TTL", "memory.short_term.ttl"},
		{"CONTEXTMEM_MEMORY_LONG_TERM_CAPACITY", "memory.long_term.capacity"},
		{"CONTEXTMEM_MEMORY_SWEEP_INTERVAL", "memory.sweep_interval"},
		{"CONTEXTMEM_MEMORY_SEARCH_K", "memory.search_k"},
		{"CONTEXTMEM_TOKENS_CHARS_PER_TOKEN", "tokens.chars_per_token"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, transformEnvKey(tt.env))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "tei", cfg.Embedding.Provider)
	assert.Equal(t, 1024, cfg.Embedding.Dimension)
	assert.Equal(t, 10, cfg.Memory.Immediate.Capacity)
	assert.Equal(t, time.Hour, cfg.Memory.ShortTerm.TTL.Duration())
	assert.Zero(t, cfg.Memory.LongTerm.TTL.Duration(), "long term never expires by default")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
embedding:
  provider: mock
  dimension: 64
memory:
  short_term:
    capacity: 7
    ttl: 30m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 64, cfg.Embedding.Dimension)
	assert.Equal(t, 7, cfg.Memory.ShortTerm.Capacity)
	assert.Equal(t, 30*time.Minute, cfg.Memory.ShortTerm.TTL.Duration())
	// Untouched keys keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	t.Setenv("CONTEXTMEM_SERVER_PORT", "7777")
	t.Setenv("CONTEXTMEM_EMBEDDING_BASE_URL", "http://tei.internal:8080")
	t.Setenv("CONTEXTMEM_MEMORY_SHORT_TERM_TTL", "15m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "http://tei.internal:8080", cfg.Embedding.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Memory.ShortTerm.TTL.Duration())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("CONTEXTMEM_SERVER_PORT", "-1")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad embedding provider", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"tei without base url", func(c *Config) { c.Embedding.BaseURL = "" }},
		{"zero dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"zero retry attempts", func(c *Config) { c.Embedding.Retry.MaxAttempts = 0 }},
		{"bad index backend", func(c *Config) { c.Index.Backend = "qdrant" }},
		{"chromem without path", func(c *Config) { c.Index.Backend = "chromem"; c.Index.Path = "" }},
		{"zero search_k", func(c *Config) { c.Memory.SearchK = 0 }},
		{"zero sweep interval", func(c *Config) { c.Memory.SweepInterval = 0 }},
		{"zero chars per token", func(c *Config) { c.Tokens.CharsPerToken = 0 }},
		{"rate limit enabled without rps", func(c *Config) { c.Server.RateLimit.RPS = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())
}
