package room

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper closes idle rooms on a fixed interval.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

func NewReaper(manager *Manager, interval time.Duration, logger zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		manager:  manager,
		interval: interval,
		logger:   logger.With().Str("component", "room_reaper").Logger(),
	}
}

// Run blocks until context cancellation.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.manager.Reap(ctx); n > 0 {
				r.logger.Debug().Int("closed", n).Msg("room sweep")
			}
		}
	}
}
