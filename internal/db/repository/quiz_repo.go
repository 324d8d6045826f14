package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/quiz-live/internal/db/store"
	"github.com/gokatarajesh/quiz-live/internal/quiz"
)

type quizStore interface {
	GetPublishedQuiz(ctx context.Context, quizID pgtype.UUID) (store.Quiz, error)
	ListQuestionsByQuiz(ctx context.Context, quizID pgtype.UUID) ([]store.Question, error)
	HasCompletedResult(ctx context.Context, arg store.HasCompletedResultParams) (bool, error)
}

// QuizRepository reads published quiz definitions.
type QuizRepository struct {
	store quizStore
}

func NewQuizRepository(store quizStore) *QuizRepository {
	return &QuizRepository{store: store}
}

// GetPublished loads a published quiz with its ordered questions. Unpublished
// or missing quizzes yield quiz.ErrNotFound.
func (r *QuizRepository) GetPublished(ctx context.Context, quizID uuid.UUID) (quiz.Quiz, error) {
	row, err := r.store.GetPublishedQuiz(ctx, toPgUUID(quizID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quiz.Quiz{}, quiz.ErrNotFound
		}
		return quiz.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}

	questionRows, err := r.store.ListQuestionsByQuiz(ctx, row.QuizID)
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("list questions: %w", err)
	}

	q := quiz.Quiz{
		ID:               fromPgUUID(row.QuizID),
		Title:            row.Title,
		Published:        row.Published,
		PassingScore:     int(row.PassingScore),
		TimeLimitSeconds: int(row.TimeLimitSeconds),
		RandomOrder:      row.RandomOrder,
		AllowRetake:      row.AllowRetake,
		Questions:        make([]quiz.Question, 0, len(questionRows)),
	}
	for _, qr := range questionRows {
		question, err := questionFromRow(qr)
		if err != nil {
			return quiz.Quiz{}, err
		}
		q.Questions = append(q.Questions, question)
	}
	return q, nil
}

// HasCompleted reports whether the user already has a result for the quiz.
func (r *QuizRepository) HasCompleted(ctx context.Context, userID, quizID uuid.UUID) (bool, error) {
	return r.store.HasCompletedResult(ctx, store.HasCompletedResultParams{
		UserID: toPgUUID(userID),
		QuizID: toPgUUID(quizID),
	})
}

func questionFromRow(row store.Question) (quiz.Question, error) {
	var options []quiz.Option
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &options); err != nil {
			return quiz.Question{}, fmt.Errorf("decode options for question %s: %w", fromPgUUID(row.QuestionID), err)
		}
	}
	return quiz.Question{
		ID:               fromPgUUID(row.QuestionID),
		Type:             row.QuestionType,
		Prompt:           row.Prompt,
		Options:          options,
		CorrectOptionID:  row.CorrectOptionID.String,
		AcceptedAnswers:  row.AcceptedAnswers,
		CaseSensitive:    row.CaseSensitive,
		Points:           int(row.Points),
		TimeLimitSeconds: int(row.TimeLimitSeconds),
		Position:         int(row.Position),
	}, nil
}
