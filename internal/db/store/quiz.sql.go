package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPublishedQuiz = `-- name: GetPublishedQuiz :one
SELECT quiz_id, title, published, passing_score, time_limit_seconds, random_order, allow_retake, created_at, updated_at
FROM quizzes
WHERE quiz_id = $1 AND published = TRUE
`

func (q *Queries) GetPublishedQuiz(ctx context.Context, quizID pgtype.UUID) (Quiz, error) {
	row := q.db.QueryRow(ctx, getPublishedQuiz, quizID)
	var i Quiz
	err := row.Scan(
		&i.QuizID,
		&i.Title,
		&i.Published,
		&i.PassingScore,
		&i.TimeLimitSeconds,
		&i.RandomOrder,
		&i.AllowRetake,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listQuestionsByQuiz = `-- name: ListQuestionsByQuiz :many
SELECT question_id, quiz_id, position, question_type, prompt, options, correct_option_id, accepted_answers, case_sensitive, points, time_limit_seconds
FROM questions
WHERE quiz_id = $1
ORDER BY position ASC, question_id ASC
`

func (q *Queries) ListQuestionsByQuiz(ctx context.Context, quizID pgtype.UUID) ([]Question, error) {
	rows, err := q.db.Query(ctx, listQuestionsByQuiz, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(
			&i.QuestionID,
			&i.QuizID,
			&i.Position,
			&i.QuestionType,
			&i.Prompt,
			&i.Options,
			&i.CorrectOptionID,
			&i.AcceptedAnswers,
			&i.CaseSensitive,
			&i.Points,
			&i.TimeLimitSeconds,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
