package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// envPrefix namespaces contextmem environment variables.
	envPrefix = "CONTEXTMEM_"
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CONTEXTMEM_SERVER_PORT, CONTEXTMEM_EMBEDDING_BASE_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables are mapped by stripping the prefix, lowercasing, and
// splitting on the first underscore boundary that matches a config section:
//
//	CONTEXTMEM_SERVER_PORT            -> server.port
//	CONTEXTMEM_EMBEDDING_BASE_URL     -> embedding.base_url
//	CONTEXTMEM_MEMORY_SHORT_TERM_TTL  -> memory.short_term.ttl
//
// An empty configPath skips file loading entirely.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; defaults and env apply.
		case err != nil:
			return nil, fmt.Errorf("stat config file: %w", err)
		default:
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("%w: config file %s exceeds %d bytes", ErrInvalidConfig, configPath, maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sections are the top-level config keys env vars are mapped against.
var sections = []string{"server", "logging", "embedding", "index", "memory", "tokens"}

// compoundKeys are nested keys containing underscores; they must be matched
// before the generic underscore-to-dot split so that e.g. SHORT_TERM_TTL
// becomes short_term.ttl rather than short.term_ttl.
var compoundKeys = []string{
	"auth_token", "body_limit", "shutdown_timeout", "rate_limit",
	"base_url", "api_key", "max_attempts", "initial_backoff", "max_backoff",
	"max_entries", "consecutive_failures", "open_timeout",
	"short_term", "long_term", "sweep_interval", "search_k",
	"chars_per_token",
}

// transformEnvKey maps an environment variable name to a config key path.
func transformEnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))

	for _, section := range sections {
		if !strings.HasPrefix(s, section+"_") {
			continue
		}
		rest := strings.TrimPrefix(s, section+"_")

		// Peel off path segments front-to-back, preferring compound keys
		// over the plain underscore split.
		var parts []string
		for rest != "" {
			segment := ""
			for _, ck := range compoundKeys {
				if rest == ck || strings.HasPrefix(rest, ck+"_") {
					segment = ck
					break
				}
			}
			if segment == "" {
				if i := strings.Index(rest, "_"); i >= 0 {
					segment = rest[:i]
				} else {
					segment = rest
				}
			}
			parts = append(parts, segment)
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, segment), "_")
		}
		return section + "." + strings.Join(parts, ".")
	}
	return s
}
