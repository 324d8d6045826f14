package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-live/internal/db/store"
	"github.com/gokatarajesh/quiz-live/internal/leaderboard"
)

type leaderboardStore interface {
	ListQuizLeaderboard(ctx context.Context, arg store.ListQuizLeaderboardParams) ([]store.ListQuizLeaderboardRow, error)
}

// LeaderboardRepository ranks passed results per quiz.
type LeaderboardRepository struct {
	store leaderboardStore
}

var _ leaderboard.Source = (*LeaderboardRepository)(nil)

func NewLeaderboardRepository(store leaderboardStore) *LeaderboardRepository {
	return &LeaderboardRepository{store: store}
}

// Top returns up to limit entries ranked from 1.
func (r *LeaderboardRepository) Top(ctx context.Context, quizID uuid.UUID, since time.Time, limit int) ([]leaderboard.Entry, error) {
	rows, err := r.store.ListQuizLeaderboard(ctx, store.ListQuizLeaderboardParams{
		QuizID: toPgUUID(quizID),
		Since:  toPgTime(since),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, leaderboard.Entry{
			Rank:           i + 1,
			UserID:         fromPgUUID(row.UserID),
			DisplayName:    row.DisplayName,
			Score:          int(row.Score),
			Percentage:     int(row.Percentage),
			ElapsedSeconds: int(row.ElapsedSeconds),
			CompletedAt:    fromPgTime(row.CompletedAt),
		})
	}
	return entries, nil
}
