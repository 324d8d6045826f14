package quiz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// ErrNotFound is returned by repositories for missing or unpublished quizzes.
var ErrNotFound = errors.New("quiz not found")

// Repository reads quiz definitions and result history from the database.
type Repository interface {
	GetPublished(ctx context.Context, quizID uuid.UUID) (Quiz, error)
	HasCompleted(ctx context.Context, userID, quizID uuid.UUID) (bool, error)
}

// DefinitionCache stores definitions between loads. *Cache implements it.
type DefinitionCache interface {
	Get(ctx context.Context, quizID uuid.UUID) (*Quiz, error)
	Set(ctx context.Context, q Quiz) error
}

// Loader resolves quiz definitions through the cache, collapsing concurrent
// misses for the same quiz into one database read.
type Loader struct {
	repo   Repository
	cache  DefinitionCache
	group  singleflight.Group
	logger zerolog.Logger
}

// NewLoader builds a Loader. cache may be nil.
func NewLoader(repo Repository, cache DefinitionCache, logger zerolog.Logger) *Loader {
	return &Loader{
		repo:   repo,
		cache:  cache,
		logger: logger.With().Str("component", "quiz_loader").Logger(),
	}
}

// Load returns the published quiz. Missing or unpublished quizzes map to a
// NotFound application error.
func (l *Loader) Load(ctx context.Context, quizID uuid.UUID) (Quiz, error) {
	if l.cache != nil {
		cached, err := l.cache.Get(ctx, quizID)
		if err != nil {
			l.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("quiz cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	v, err, _ := l.group.Do(quizID.String(), func() (interface{}, error) {
		q, err := l.repo.GetPublished(ctx, quizID)
		if err != nil {
			return Quiz{}, err
		}
		if l.cache != nil {
			if err := l.cache.Set(ctx, q); err != nil {
				l.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("quiz cache write failed")
			}
		}
		return q, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Quiz{}, apperror.NotFound(httperrors.ErrCodeQuizNotFound, "quiz not found or not published")
		}
		return Quiz{}, apperror.Internal(err)
	}
	return v.(Quiz), nil
}

// HasCompleted reports whether the user already finished the quiz once.
func (l *Loader) HasCompleted(ctx context.Context, userID, quizID uuid.UUID) (bool, error) {
	done, err := l.repo.HasCompleted(ctx, userID, quizID)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return done, nil
}
