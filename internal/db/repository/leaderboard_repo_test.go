package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/db/store"
)

func TestLeaderboardRepository_TopRanksRows(t *testing.T) {
	q := new(mockQuerier)
	repo := NewLeaderboardRepository(q)

	quizID := uuidFromByte(1)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q.On("ListQuizLeaderboard", mock.Anything, store.ListQuizLeaderboardParams{
		QuizID: quizID,
		Since:  toPgTime(since),
		Limit:  2,
	}).Return([]store.ListQuizLeaderboardRow{
		{UserID: uuidFromByte(2), DisplayName: "Ace", Score: 30},
		{UserID: uuidFromByte(3), DisplayName: "Bee", Score: 20},
	}, nil)

	entries, err := repo.Top(context.Background(), fromPgUUID(quizID), since, 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Ace", entries[0].DisplayName)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 20, entries[1].Score)
}

func TestLeaderboardRepository_ZeroSinceIsUnbounded(t *testing.T) {
	q := new(mockQuerier)
	repo := NewLeaderboardRepository(q)

	q.On("ListQuizLeaderboard", mock.Anything, mock.MatchedBy(func(p store.ListQuizLeaderboardParams) bool {
		return !p.Since.Valid
	})).Return([]store.ListQuizLeaderboardRow{}, nil)

	entries, err := repo.Top(context.Background(), fromPgUUID(uuidFromByte(1)), time.Time{}, 10)

	require.NoError(t, err)
	assert.Empty(t, entries)
	q.AssertExpectations(t)
}
