package challenge

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper expires stale challenges on a fixed interval.
type Sweeper struct {
	broker   *Broker
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(broker *Broker, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		broker:   broker,
		interval: interval,
		logger:   logger.With().Str("component", "challenge_sweeper").Logger(),
	}
}

// Run blocks until context cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.broker.Sweep(ctx); n > 0 {
				s.logger.Debug().Int("expired", n).Msg("challenge sweep")
			}
		}
	}
}
