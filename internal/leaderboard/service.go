package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

var timeframes = []string{TimeframeAll, TimeframeToday, TimeframeWeek, TimeframeMonth}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	CacheTTL       time.Duration
	DefaultLimit   int
	MaxLimit       int
	PubSubChannel  string
	RedisKeyPrefix string
	Now            func() time.Time
}

// Service answers ranked queries from the result store and caches pages in Redis.
type Service struct {
	source Source
	redis  *redis.Client
	opts   ServiceOptions
	logger zerolog.Logger
}

// NewService constructs a leaderboard service. redis may be nil to disable caching.
func NewService(source Source, redis *redis.Client, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.DefaultLimit <= 0 || opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = min(10, opts.MaxLimit)
	}
	if opts.PubSubChannel == "" {
		opts.PubSubChannel = "lb:updates"
	}
	if opts.RedisKeyPrefix == "" {
		opts.RedisKeyPrefix = "lb"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source: source,
		redis:  redis,
		opts:   opts,
		logger: logger.With().Str("component", "leaderboard").Logger(),
	}
}

// ParseTimeframe validates a timeframe query value. Empty means all time.
func ParseTimeframe(raw string) (string, error) {
	if raw == "" {
		return TimeframeAll, nil
	}
	for _, tf := range timeframes {
		if raw == tf {
			return tf, nil
		}
	}
	return "", apperror.Validation(httperrors.ErrCodeInvalidTimeframe, "timeframe must be all, today, week or month")
}

// Top returns up to limit ranked entries for the quiz within the timeframe.
func (s *Service) Top(ctx context.Context, quizID uuid.UUID, timeframe string, limit int) ([]Entry, error) {
	limit = s.clampLimit(limit)
	key := s.cacheKey(quizID, timeframe)
	field := strconv.Itoa(limit)

	if cached, ok := s.readCache(ctx, key, field); ok {
		return cached, nil
	}

	entries, err := s.source.Top(ctx, quizID, s.since(timeframe), limit)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("leaderboard query: %w", err))
	}
	if entries == nil {
		entries = []Entry{}
	}

	s.writeCache(ctx, key, field, entries)
	return entries, nil
}

// Invalidate drops every cached page for the quiz and tells other instances.
func (s *Service) Invalidate(ctx context.Context, quizID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}
	keys := make([]string, len(timeframes))
	for i, tf := range timeframes {
		keys[i] = s.cacheKey(quizID, tf)
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Publish(ctx, s.opts.PubSubChannel, quizID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate leaderboard %s: %w", quizID, err)
	}
	return nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// since maps a timeframe to its lower bound in UTC. today starts at midnight;
// week and month are rolling windows.
func (s *Service) since(timeframe string) time.Time {
	now := s.opts.Now().UTC()
	switch timeframe {
	case TimeframeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Time{}
	}
}

func (s *Service) readCache(ctx context.Context, key, field string) ([]Entry, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.HGet(ctx, key, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("leaderboard cache read failed")
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("leaderboard cache payload decode failed")
		return nil, false
	}
	return entries, true
}

func (s *Service) writeCache(ctx context.Context, key, field string, entries []Entry) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, field, raw)
	pipe.Expire(ctx, key, s.opts.CacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("leaderboard cache write failed")
	}
}

func (s *Service) cacheKey(quizID uuid.UUID, timeframe string) string {
	return fmt.Sprintf("%s:%s:%s", s.opts.RedisKeyPrefix, quizID, timeframe)
}
