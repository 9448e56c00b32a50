package memory

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs the periodic TTL sweep so idle levels shrink without waiting
// for new writes. The lazy check on put/get bounds staleness for active
// data; the sweep bounds it for idle data.
type Sweeper struct {
	tiers    *TierManager
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper over the tier manager.
func NewSweeper(tiers *TierManager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{tiers: tiers, interval: interval, logger: logger}
}

// Start launches the sweep loop. No-op when the interval is not positive.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 || s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("ttl sweeper started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.tiers.Sweep(ctx); removed > 0 {
					s.logger.Info("ttl sweep completed", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.logger.Info("ttl sweeper stopped")
}
