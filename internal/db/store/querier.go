package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	EnsureProgress(ctx context.Context, userID pgtype.UUID) error
	GetProgressForUpdate(ctx context.Context, userID pgtype.UUID) (UserProgress, error)
	GetPublishedQuiz(ctx context.Context, quizID pgtype.UUID) (Quiz, error)
	GetResultBySession(ctx context.Context, sessionID pgtype.UUID) (QuizResult, error)
	GetUserByID(ctx context.Context, userID pgtype.UUID) (User, error)
	HasCompletedResult(ctx context.Context, arg HasCompletedResultParams) (bool, error)
	InsertAchievement(ctx context.Context, arg InsertAchievementParams) error
	InsertResult(ctx context.Context, arg InsertResultParams) (QuizResult, error)
	ListAchievementCodes(ctx context.Context, userID pgtype.UUID) ([]string, error)
	ListFriendIDs(ctx context.Context, userID pgtype.UUID) ([]pgtype.UUID, error)
	ListQuestionsByQuiz(ctx context.Context, quizID pgtype.UUID) ([]Question, error)
	ListQuizLeaderboard(ctx context.Context, arg ListQuizLeaderboardParams) ([]ListQuizLeaderboardRow, error)
	UpdateProgress(ctx context.Context, arg UpdateProgressParams) error
}

var _ Querier = (*Queries)(nil)
