package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/quiz-live/internal/db/store"
)

func uuidFromByte(b byte) pgtype.UUID {
	var arr [16]byte
	arr[15] = b
	return pgtype.UUID{Bytes: arr, Valid: true}
}

type mockQuerier struct {
	mock.Mock
}

var _ store.Querier = (*mockQuerier)(nil)

func (m *mockQuerier) EnsureProgress(ctx context.Context, userID pgtype.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockQuerier) GetProgressForUpdate(ctx context.Context, userID pgtype.UUID) (store.UserProgress, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(store.UserProgress), args.Error(1)
}

func (m *mockQuerier) GetPublishedQuiz(ctx context.Context, quizID pgtype.UUID) (store.Quiz, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(store.Quiz), args.Error(1)
}

func (m *mockQuerier) GetResultBySession(ctx context.Context, sessionID pgtype.UUID) (store.QuizResult, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(store.QuizResult), args.Error(1)
}

func (m *mockQuerier) GetUserByID(ctx context.Context, userID pgtype.UUID) (store.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(store.User), args.Error(1)
}

func (m *mockQuerier) HasCompletedResult(ctx context.Context, arg store.HasCompletedResultParams) (bool, error) {
	args := m.Called(ctx, arg)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuerier) InsertAchievement(ctx context.Context, arg store.InsertAchievementParams) error {
	return m.Called(ctx, arg).Error(0)
}

func (m *mockQuerier) InsertResult(ctx context.Context, arg store.InsertResultParams) (store.QuizResult, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(store.QuizResult), args.Error(1)
}

func (m *mockQuerier) ListAchievementCodes(ctx context.Context, userID pgtype.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockQuerier) ListFriendIDs(ctx context.Context, userID pgtype.UUID) ([]pgtype.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]pgtype.UUID), args.Error(1)
}

func (m *mockQuerier) ListQuestionsByQuiz(ctx context.Context, quizID pgtype.UUID) ([]store.Question, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]store.Question), args.Error(1)
}

func (m *mockQuerier) ListQuizLeaderboard(ctx context.Context, arg store.ListQuizLeaderboardParams) ([]store.ListQuizLeaderboardRow, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]store.ListQuizLeaderboardRow), args.Error(1)
}

func (m *mockQuerier) UpdateProgress(ctx context.Context, arg store.UpdateProgressParams) error {
	return m.Called(ctx, arg).Error(0)
}

// inlineTx runs the callback against the same mock, like a transaction that
// always commits.
type inlineTx struct {
	q store.Querier
}

func (t inlineTx) ExecTx(_ context.Context, fn func(store.Querier) error) error {
	return fn(t.q)
}
