package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listQuizLeaderboard = `-- name: ListQuizLeaderboard :many
SELECT user_id, display_name, score, percentage, elapsed_seconds, completed_at
FROM (
    SELECT DISTINCT ON (r.user_id)
        r.user_id, u.display_name, r.score, r.percentage, r.elapsed_seconds, r.completed_at
    FROM quiz_results r
    JOIN users u ON u.user_id = r.user_id
    WHERE r.quiz_id = $1
      AND r.passed = TRUE
      AND ($2::timestamptz IS NULL OR r.completed_at >= $2::timestamptz)
    ORDER BY r.user_id, r.score DESC, r.elapsed_seconds ASC, r.completed_at ASC
) best
ORDER BY score DESC, elapsed_seconds ASC, completed_at ASC
LIMIT $3
`

type ListQuizLeaderboardParams struct {
	QuizID pgtype.UUID        `json:"quiz_id"`
	Since  pgtype.Timestamptz `json:"since"`
	Limit  int32              `json:"limit"`
}

type ListQuizLeaderboardRow struct {
	UserID         pgtype.UUID        `json:"user_id"`
	DisplayName    string             `json:"display_name"`
	Score          int32              `json:"score"`
	Percentage     int32              `json:"percentage"`
	ElapsedSeconds int32              `json:"elapsed_seconds"`
	CompletedAt    pgtype.Timestamptz `json:"completed_at"`
}

func (q *Queries) ListQuizLeaderboard(ctx context.Context, arg ListQuizLeaderboardParams) ([]ListQuizLeaderboardRow, error) {
	rows, err := q.db.Query(ctx, listQuizLeaderboard, arg.QuizID, arg.Since, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListQuizLeaderboardRow
	for rows.Next() {
		var i ListQuizLeaderboardRow
		if err := rows.Scan(
			&i.UserID,
			&i.DisplayName,
			&i.Score,
			&i.Percentage,
			&i.ElapsedSeconds,
			&i.CompletedAt,
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
