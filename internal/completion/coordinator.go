package completion

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// Options configures the write retry policy.
type Options struct {
	MaxAttempts uint64
	RetryDelay  time.Duration
}

// Coordinator turns a finished session into a stored result, progression
// update and achievement awards. Each session is written at most once.
type Coordinator struct {
	repo     Repository
	notifier Notifier
	cache    CacheInvalidator
	opts     Options
	logger   zerolog.Logger
}

// NewCoordinator builds a Coordinator. notifier and cache may be nil.
func NewCoordinator(repo Repository, notifier Notifier, cache CacheInvalidator, opts Options, logger zerolog.Logger) *Coordinator {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	return &Coordinator{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		opts:     opts,
		logger:   logger.With().Str("component", "completion").Logger(),
	}
}

// Complete persists the session outcome. If a result already exists for the
// session it is returned unchanged and nothing is announced.
func (c *Coordinator) Complete(ctx context.Context, in Input) (*Result, error) {
	result := Evaluate(in)
	advance := func(cur Progress, owned []string) (Progress, []string) {
		return Advance(cur, owned, result)
	}

	var saved Saved
	attempt := 0
	backoff := retry.WithMaxRetries(c.opts.MaxAttempts-1, retry.NewConstant(c.opts.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		existing, err := c.repo.FindBySession(ctx, in.SessionID)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("session_id", in.SessionID.String()).Msg("result lookup failed")
			return retry.RetryableError(err)
		}
		if existing != nil {
			saved = Saved{Result: *existing, Duplicate: true}
			return nil
		}

		s, err := c.repo.Save(ctx, result, advance)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("session_id", in.SessionID.String()).Msg("result write failed")
			return retry.RetryableError(err)
		}
		saved = s
		return nil
	})
	if err != nil {
		return nil, apperror.New(apperror.KindInternal, httperrors.ErrCodeCompletionFailed, "could not store the game result").WithCause(err)
	}

	out := saved.Result
	if saved.Duplicate {
		return &out, nil
	}
	out.Achievements = saved.Unlocked
	progress := saved.Progress
	out.Progress = &progress

	c.logger.Info().
		Str("session_id", in.SessionID.String()).
		Str("user_id", in.UserID.String()).
		Int("score", out.Score).
		Int("percentage", out.Percentage).
		Bool("passed", out.Passed).
		Strs("achievements", out.Achievements).
		Msg("game completed")

	if len(saved.Unlocked) > 0 && c.notifier != nil {
		c.notifier.AnnounceAchievements(ctx, in.UserID, saved.Unlocked)
	}
	if out.Passed && c.cache != nil {
		if err := c.cache.Invalidate(ctx, in.QuizID); err != nil {
			c.logger.Warn().Err(err).Str("quiz_id", in.QuizID.String()).Msg("leaderboard cache invalidation failed")
		}
	}
	return &out, nil
}
