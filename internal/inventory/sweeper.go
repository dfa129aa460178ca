package inventory

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
)

// Sweeper periodically deletes expired holds.  Reads already treat an
// expired hold as FREE, so the sweep only reclaims storage.
type Sweeper struct {
	inv      *Inventory
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper builds a sweeper that runs every interval.
func NewSweeper(inv *Inventory, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{inv: inv, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("hold sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	start := time.Now()
	sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	n, err := s.inv.Sweep(sweepCtx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "sweep expired holds", err, nil)
		return
	}
	if n > 0 {
		s.log.LogHoldsSwept(ctx, n, time.Since(start))
	}
}
