package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/metrics"
)

// Reaper periodically expires idle sessions and evicts finished ones.
type Reaper struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewReaper(svc *Service, interval time.Duration, logger zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		svc:      svc,
		interval: interval,
		logger:   logger.With().Str("component", "session_reaper").Logger(),
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
			expired, evicted := r.svc.Reap(ctx)
			if expired > 0 || evicted > 0 {
				r.logger.Debug().Int("expired", expired).Int("evicted", evicted).Msg("session sweep")
			}
		}
	}
}

// Reap abandons active sessions past their inactivity window and drops
// completed sessions past the retention window. It returns both counts.
func (s *Service) Reap(ctx context.Context) (expired, evicted int) {
	now := s.opts.Now()
	for _, sess := range s.store.All() {
		sess.mu.Lock()
		switch sess.Status {
		case StatusActive:
			if now.Sub(sess.LastActivityAt) > s.idleWindow(sess) {
				s.abandonLocked(ctx, sess, metrics.OutcomeExpired)
				expired++
			}
		case StatusCompleted:
			if now.Sub(sess.CompletedAt) > s.opts.CompletedRetention {
				if sess.Result == nil {
					s.logger.Warn().Str("session_id", sess.ID.String()).Msg("evicting session whose result was never stored")
				}
				s.store.Delete(sess.ID)
				evicted++
			}
		default:
			s.store.Delete(sess.ID)
			evicted++
		}
		sess.mu.Unlock()
	}
	return expired, evicted
}

func (s *Service) idleWindow(sess *Session) time.Duration {
	if sess.TimeLimitSeconds > 0 {
		return time.Duration(sess.TimeLimitSeconds)*time.Second + s.opts.IdleGrace
	}
	return s.opts.IdleTimeout
}
