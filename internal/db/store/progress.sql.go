package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const ensureProgress = `-- name: EnsureProgress :exec
INSERT INTO user_progress (user_id) VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`

func (q *Queries) EnsureProgress(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, ensureProgress, userID)
	return err
}

const getProgressForUpdate = `-- name: GetProgressForUpdate :one
SELECT user_id, games_played, games_won, experience, total_points, level, current_streak, longest_streak, last_played_at, updated_at
FROM user_progress
WHERE user_id = $1
FOR UPDATE
`

func (q *Queries) GetProgressForUpdate(ctx context.Context, userID pgtype.UUID) (UserProgress, error) {
	row := q.db.QueryRow(ctx, getProgressForUpdate, userID)
	var i UserProgress
	err := row.Scan(
		&i.UserID,
		&i.GamesPlayed,
		&i.GamesWon,
		&i.Experience,
		&i.TotalPoints,
		&i.Level,
		&i.CurrentStreak,
		&i.LongestStreak,
		&i.LastPlayedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateProgress = `-- name: UpdateProgress :exec
UPDATE user_progress
SET games_played = $2,
    games_won = $3,
    experience = $4,
    total_points = $5,
    level = $6,
    current_streak = $7,
    longest_streak = $8,
    last_played_at = $9,
    updated_at = now()
WHERE user_id = $1
`

type UpdateProgressParams struct {
	UserID        pgtype.UUID        `json:"user_id"`
	GamesPlayed   int32              `json:"games_played"`
	GamesWon      int32              `json:"games_won"`
	Experience    int32              `json:"experience"`
	TotalPoints   int64              `json:"total_points"`
	Level         int32              `json:"level"`
	CurrentStreak int32              `json:"current_streak"`
	LongestStreak int32              `json:"longest_streak"`
	LastPlayedAt  pgtype.Timestamptz `json:"last_played_at"`
}

func (q *Queries) UpdateProgress(ctx context.Context, arg UpdateProgressParams) error {
	_, err := q.db.Exec(ctx, updateProgress,
		arg.UserID,
		arg.GamesPlayed,
		arg.GamesWon,
		arg.Experience,
		arg.TotalPoints,
		arg.Level,
		arg.CurrentStreak,
		arg.LongestStreak,
		arg.LastPlayedAt,
	)
	return err
}

const listAchievementCodes = `-- name: ListAchievementCodes :many
SELECT code FROM user_achievements WHERE user_id = $1 ORDER BY awarded_at
`

func (q *Queries) ListAchievementCodes(ctx context.Context, userID pgtype.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listAchievementCodes, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		items = append(items, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertAchievement = `-- name: InsertAchievement :exec
INSERT INTO user_achievements (user_id, code, awarded_at) VALUES ($1, $2, $3)
ON CONFLICT (user_id, code) DO NOTHING
`

type InsertAchievementParams struct {
	UserID    pgtype.UUID        `json:"user_id"`
	Code      string             `json:"code"`
	AwardedAt pgtype.Timestamptz `json:"awarded_at"`
}

func (q *Queries) InsertAchievement(ctx context.Context, arg InsertAchievementParams) error {
	_, err := q.db.Exec(ctx, insertAchievement, arg.UserID, arg.Code, arg.AwardedAt)
	return err
}
