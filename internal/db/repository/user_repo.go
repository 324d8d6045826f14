package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/quiz-live/internal/db/store"
)

type userStore interface {
	GetUserByID(ctx context.Context, userID pgtype.UUID) (store.User, error)
	ListFriendIDs(ctx context.Context, userID pgtype.UUID) ([]pgtype.UUID, error)
}

// UserRepository exposes the user lookups presence needs.
type UserRepository struct {
	store userStore
}

func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// DisplayName returns the user's display name.
func (r *UserRepository) DisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := r.store.GetUserByID(ctx, toPgUUID(userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.DisplayName, nil
}

// FriendIDs lists accepted friends in either direction of the friendship.
func (r *UserRepository) FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.store.ListFriendIDs(ctx, toPgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, fromPgUUID(row))
	}
	return ids, nil
}
