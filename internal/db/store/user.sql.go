package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getUserByID = `-- name: GetUserByID :one
SELECT user_id, display_name, avatar_url, created_at FROM users WHERE user_id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, userID pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, userID)
	var i User
	err := row.Scan(
		&i.UserID,
		&i.DisplayName,
		&i.AvatarUrl,
		&i.CreatedAt,
	)
	return i, err
}

const listFriendIDs = `-- name: ListFriendIDs :many
SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'
UNION
SELECT user_id FROM friendships WHERE friend_id = $1 AND status = 'accepted'
`

func (q *Queries) ListFriendIDs(ctx context.Context, userID pgtype.UUID) ([]pgtype.UUID, error) {
	rows, err := q.db.Query(ctx, listFriendIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []pgtype.UUID
	for rows.Next() {
		var friendID pgtype.UUID
		if err := rows.Scan(&friendID); err != nil {
			return nil, err
		}
		items = append(items, friendID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
