package worker

import (
	"context"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"
)

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Sweeper periodically evicts expired artifacts from a storage backend.
type Sweeper struct {
	target   sweeper
	name     string
	interval time.Duration
	logger   *zlog.Zerolog
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewSweeper(target sweeper, name string, interval time.Duration, logger *zlog.Zerolog) *Sweeper {
	return &Sweeper{
		target:   target,
		name:     name,
		interval: interval,
		logger:   logger,
	}
}

// Start runs one sweep immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.logger.Info().
		Str("backend", s.name).
		Dur("interval", s.interval).
		Msg("Starting expiry sweeper")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Str("backend", s.name).Msg("Expiry sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	removed, err := s.target.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error().Err(err).Str("backend", s.name).Msg("Sweep failed")
		return
	}

	s.logger.Debug().
		Str("backend", s.name).
		Int("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("Sweep completed")
}
