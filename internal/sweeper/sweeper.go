// Package sweeper retires expired deals and pins in the background.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/shard"
)

// Sweeper walks every shard on a fixed interval. A failure in one shard is
// logged and the loop continues with the rest.
type Sweeper struct {
	reg      *shard.Registry
	store    listing.Store
	interval time.Duration
	log      *zap.Logger
}

func New(reg *shard.Registry, store listing.Store, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{reg: reg, store: store, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", zap.Duration("interval", s.interval))
	// Sweep once up front so a restart does not leave expired listings
	// lingering for a full interval.
	s.SweepAll(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepAll(ctx, time.Now())
		}
	}
}

// SweepAll sweeps every shard once and reports the totals.
func (s *Sweeper) SweepAll(ctx context.Context, now time.Time) listing.SweepResult {
	var total listing.SweepResult
	for _, sh := range s.reg.All() {
		res, err := s.store.SweepExpired(ctx, sh.ID, now)
		if err != nil {
			s.log.Error("shard sweep failed",
				zap.String("shard", sh.ID),
				zap.Error(err))
			continue
		}
		total.DealsDeleted += res.DealsDeleted
		total.PinsCleared += res.PinsCleared
		if res.DealsDeleted > 0 || res.PinsCleared > 0 {
			s.log.Info("shard swept",
				zap.String("shard", sh.ID),
				zap.Int("deals_deleted", res.DealsDeleted),
				zap.Int("pins_cleared", res.PinsCleared))
		}
	}
	return total
}
