package vectorindex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/config"
)

// Factory opens one Index per level, all sharing the configured backend.
type Factory struct {
	cfg       config.IndexConfig
	dimension int
	logger    *zap.Logger

	// db is lazily opened for the chromem backend and shared across levels.
	db *chromem.DB
}

// NewFactory creates an index factory from configuration.
func NewFactory(cfg config.IndexConfig, dimension int, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	switch cfg.Backend {
	case "memory", "chromem":
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
	return &Factory{cfg: cfg, dimension: dimension, logger: logger}, nil
}

// Open creates the index for a named level collection.
func (f *Factory) Open(name string) (Index, error) {
	switch f.cfg.Backend {
	case "chromem":
		if f.db == nil {
			path, err := expandPath(f.cfg.Path)
			if err != nil {
				return nil, fmt.Errorf("expanding index path: %w", err)
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, fmt.Errorf("creating index directory %s: %w", path, err)
			}
			db, err := chromem.NewPersistentDB(path, f.cfg.Compress)
			if err != nil {
				return nil, fmt.Errorf("opening chromem DB: %w", err)
			}
			f.db = db
			f.logger.Info("chromem index opened",
				zap.String("path", path),
				zap.Bool("compress", f.cfg.Compress),
				zap.Int("dimension", f.dimension),
			)
		}
		return NewChromemIndex(f.db, name, f.dimension)
	default:
		return NewMemoryIndex(f.dimension)
	}
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
