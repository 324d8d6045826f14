package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const hasCompletedResult = `-- name: HasCompletedResult :one
SELECT EXISTS (
    SELECT 1 FROM quiz_results WHERE user_id = $1 AND quiz_id = $2
)
`

type HasCompletedResultParams struct {
	UserID pgtype.UUID `json:"user_id"`
	QuizID pgtype.UUID `json:"quiz_id"`
}

func (q *Queries) HasCompletedResult(ctx context.Context, arg HasCompletedResultParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasCompletedResult, arg.UserID, arg.QuizID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const getResultBySession = `-- name: GetResultBySession :one
SELECT result_id, session_id, user_id, quiz_id, score, correct_count, total_questions, percentage, passed, answers, elapsed_seconds, completed_at
FROM quiz_results
WHERE session_id = $1
`

func (q *Queries) GetResultBySession(ctx context.Context, sessionID pgtype.UUID) (QuizResult, error) {
	row := q.db.QueryRow(ctx, getResultBySession, sessionID)
	var i QuizResult
	err := row.Scan(
		&i.ResultID,
		&i.SessionID,
		&i.UserID,
		&i.QuizID,
		&i.Score,
		&i.CorrectCount,
		&i.TotalQuestions,
		&i.Percentage,
		&i.Passed,
		&i.Answers,
		&i.ElapsedSeconds,
		&i.CompletedAt,
	)
	return i, err
}

const insertResult = `-- name: InsertResult :one
INSERT INTO quiz_results (
    session_id, user_id, quiz_id, score, correct_count, total_questions, percentage, passed, answers, elapsed_seconds, completed_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
ON CONFLICT (session_id) DO NOTHING
RETURNING result_id, session_id, user_id, quiz_id, score, correct_count, total_questions, percentage, passed, answers, elapsed_seconds, completed_at
`

type InsertResultParams struct {
	SessionID      pgtype.UUID        `json:"session_id"`
	UserID         pgtype.UUID        `json:"user_id"`
	QuizID         pgtype.UUID        `json:"quiz_id"`
	Score          int32              `json:"score"`
	CorrectCount   int32              `json:"correct_count"`
	TotalQuestions int32              `json:"total_questions"`
	Percentage     int32              `json:"percentage"`
	Passed         bool               `json:"passed"`
	Answers        []byte             `json:"answers"`
	ElapsedSeconds int32              `json:"elapsed_seconds"`
	CompletedAt    pgtype.Timestamptz `json:"completed_at"`
}

// InsertResult returns pgx.ErrNoRows when a result for the session already exists.
func (q *Queries) InsertResult(ctx context.Context, arg InsertResultParams) (QuizResult, error) {
	row := q.db.QueryRow(ctx, insertResult,
		arg.SessionID,
		arg.UserID,
		arg.QuizID,
		arg.Score,
		arg.CorrectCount,
		arg.TotalQuestions,
		arg.Percentage,
		arg.Passed,
		arg.Answers,
		arg.ElapsedSeconds,
		arg.CompletedAt,
	)
	var i QuizResult
	err := row.Scan(
		&i.ResultID,
		&i.SessionID,
		&i.UserID,
		&i.QuizID,
		&i.Score,
		&i.CorrectCount,
		&i.TotalQuestions,
		&i.Percentage,
		&i.Passed,
		&i.Answers,
		&i.ElapsedSeconds,
		&i.CompletedAt,
	)
	return i, err
}
