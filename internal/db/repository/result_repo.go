package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/quiz-live/internal/completion"
	"github.com/gokatarajesh/quiz-live/internal/db/store"
)

type resultStore interface {
	GetResultBySession(ctx context.Context, sessionID pgtype.UUID) (store.QuizResult, error)
}

type txRunner interface {
	ExecTx(ctx context.Context, fn func(store.Querier) error) error
}

// ResultRepository persists quiz results together with progression.
type ResultRepository struct {
	store resultStore
	tx    txRunner
}

var _ completion.Repository = (*ResultRepository)(nil)

func NewResultRepository(store resultStore, tx txRunner) *ResultRepository {
	return &ResultRepository{store: store, tx: tx}
}

// FindBySession returns the stored result for a session, or nil when none exists.
func (r *ResultRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) (*completion.Result, error) {
	row, err := r.store.GetResultBySession(ctx, toPgUUID(sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	res, err := resultFromRow(row)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Save writes the result, advances progression under a row lock and inserts
// new achievements, all in one transaction. A result already stored for the
// session short-circuits with Duplicate set.
func (r *ResultRepository) Save(ctx context.Context, result completion.Result, advance completion.ProgressFunc) (completion.Saved, error) {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return completion.Saved{}, fmt.Errorf("encode answers: %w", err)
	}

	var saved completion.Saved
	err = r.tx.ExecTx(ctx, func(q store.Querier) error {
		saved = completion.Saved{}

		row, err := q.InsertResult(ctx, store.InsertResultParams{
			SessionID:      toPgUUID(result.SessionID),
			UserID:         toPgUUID(result.UserID),
			QuizID:         toPgUUID(result.QuizID),
			Score:          int32(result.Score),
			CorrectCount:   int32(result.CorrectCount),
			TotalQuestions: int32(result.TotalQuestions),
			Percentage:     int32(result.Percentage),
			Passed:         result.Passed,
			Answers:        answers,
			ElapsedSeconds: int32(result.ElapsedSeconds),
			CompletedAt:    toPgTime(result.CompletedAt),
		})
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := q.GetResultBySession(ctx, toPgUUID(result.SessionID))
			if err != nil {
				return fmt.Errorf("load existing result: %w", err)
			}
			res, err := resultFromRow(existing)
			if err != nil {
				return err
			}
			saved.Result = res
			saved.Duplicate = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		stored, err := resultFromRow(row)
		if err != nil {
			return err
		}

		userID := toPgUUID(result.UserID)
		if err := q.EnsureProgress(ctx, userID); err != nil {
			return fmt.Errorf("ensure progress: %w", err)
		}
		current, err := q.GetProgressForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock progress: %w", err)
		}
		owned, err := q.ListAchievementCodes(ctx, userID)
		if err != nil {
			return fmt.Errorf("list achievements: %w", err)
		}

		next, unlocked := advance(progressFromRow(current), owned)
		if err := q.UpdateProgress(ctx, store.UpdateProgressParams{
			UserID:        userID,
			GamesPlayed:   int32(next.GamesPlayed),
			GamesWon:      int32(next.GamesWon),
			Experience:    int32(next.Experience),
			TotalPoints:   next.TotalPoints,
			Level:         int32(next.Level),
			CurrentStreak: int32(next.CurrentStreak),
			LongestStreak: int32(next.LongestStreak),
			LastPlayedAt:  toPgTime(next.LastPlayedAt),
		}); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		for _, code := range unlocked {
			if err := q.InsertAchievement(ctx, store.InsertAchievementParams{
				UserID:    userID,
				Code:      code,
				AwardedAt: toPgTime(result.CompletedAt),
			}); err != nil {
				return fmt.Errorf("insert achievement %s: %w", code, err)
			}
		}

		saved.Result = stored
		saved.Progress = next
		saved.Unlocked = unlocked
		return nil
	})
	if err != nil {
		return completion.Saved{}, err
	}
	return saved, nil
}

func resultFromRow(row store.QuizResult) (completion.Result, error) {
	var answers []completion.AnswerBreakdown
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return completion.Result{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	return completion.Result{
		ID:             fromPgUUID(row.ResultID),
		SessionID:      fromPgUUID(row.SessionID),
		UserID:         fromPgUUID(row.UserID),
		QuizID:         fromPgUUID(row.QuizID),
		Score:          int(row.Score),
		CorrectCount:   int(row.CorrectCount),
		TotalQuestions: int(row.TotalQuestions),
		Percentage:     int(row.Percentage),
		Passed:         row.Passed,
		Answers:        answers,
		ElapsedSeconds: int(row.ElapsedSeconds),
		CompletedAt:    fromPgTime(row.CompletedAt),
	}, nil
}

func progressFromRow(row store.UserProgress) completion.Progress {
	return completion.Progress{
		GamesPlayed:   int(row.GamesPlayed),
		GamesWon:      int(row.GamesWon),
		Experience:    int(row.Experience),
		TotalPoints:   row.TotalPoints,
		Level:         int(row.Level),
		CurrentStreak: int(row.CurrentStreak),
		LongestStreak: int(row.LongestStreak),
		LastPlayedAt:  fromPgTime(row.LastPlayedAt),
	}
}
