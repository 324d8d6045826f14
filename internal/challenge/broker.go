// Package challenge brokers one-to-one duel invitations between online users.
package challenge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/room"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// Challenge is a pending duel invitation.
type Challenge struct {
	ID         uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	QuizID     uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (c Challenge) payload(roomID string) ws.ChallengePayload {
	return ws.ChallengePayload{
		ChallengeID: c.ID.String(),
		FromUserID:  c.FromUserID.String(),
		ToUserID:    c.ToUserID.String(),
		QuizID:      c.QuizID.String(),
		ExpiresAt:   c.ExpiresAt,
		RoomID:      roomID,
	}
}

// Presence reports whether a user currently has a live connection.
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

// Notifier delivers events to a connected user.
type Notifier interface {
	Emit(userID uuid.UUID, eventType string, payload any) error
}

// DuelStarter opens the two-player room for an accepted challenge.
type DuelStarter interface {
	StartDuel(ctx context.Context, quizID, challengerID, opponentID uuid.UUID) (room.View, error)
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}

// Broker holds pending challenges in memory.
type Broker struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]Challenge

	presence Presence
	notifier Notifier
	duels    DuelStarter
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger
}

// NewBroker wires a challenge broker. m may be nil.
func NewBroker(presence Presence, notifier Notifier, duels DuelStarter, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Broker {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Broker{
		challenges: make(map[uuid.UUID]Challenge),
		presence:   presence,
		notifier:   notifier,
		duels:      duels,
		metrics:    m,
		opts:       opts,
		logger:     logger.With().Str("component", "challenge_broker").Logger(),
	}
}

// Send invites toUserID to a duel on quizID. The target must be online.
func (b *Broker) Send(_ context.Context, fromUserID, toUserID, quizID uuid.UUID) (Challenge, error) {
	if fromUserID == toUserID {
		return Challenge{}, apperror.Validation(httperrors.ErrCodeSelfChallenge, "cannot challenge yourself")
	}
	if !b.presence.IsOnline(toUserID) {
		return Challenge{}, apperror.NotFound(httperrors.ErrCodeUserOffline, "user is offline")
	}

	now := b.opts.Now()
	c := Challenge{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		QuizID:     quizID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(b.opts.TTL),
	}

	b.mu.Lock()
	b.challenges[c.ID] = c
	b.mu.Unlock()

	b.metrics.Challenge(metrics.ChallengeSent)
	b.logger.Info().
		Str("challenge_id", c.ID.String()).
		Str("from_user_id", fromUserID.String()).
		Str("to_user_id", toUserID.String()).
		Msg("challenge sent")

	b.emit(toUserID, ws.TypeChallengeReceived, c.payload(""))
	return c, nil
}

// Accept consumes the challenge, opens a duel room and tells both players.
func (b *Broker) Accept(ctx context.Context, challengeID, byUserID uuid.UUID) (Challenge, room.View, error) {
	c, err := b.take(challengeID, byUserID)
	if err != nil {
		return Challenge{}, room.View{}, err
	}

	duel, err := b.duels.StartDuel(ctx, c.QuizID, c.FromUserID, c.ToUserID)
	if err != nil {
		// keep the invitation so it can be accepted once both players are free
		b.mu.Lock()
		b.challenges[c.ID] = c
		b.mu.Unlock()
		return Challenge{}, room.View{}, err
	}

	b.metrics.Challenge(metrics.ChallengeAccepted)
	b.logger.Info().
		Str("challenge_id", c.ID.String()).
		Str("room_id", duel.RoomID).
		Msg("challenge accepted")

	payload := c.payload(duel.RoomID)
	b.emit(c.FromUserID, ws.TypeChallengeAccepted, payload)
	b.emit(c.ToUserID, ws.TypeChallengeAccepted, payload)
	return c, duel, nil
}

// Reject discards the challenge and tells the sender.
func (b *Broker) Reject(_ context.Context, challengeID, byUserID uuid.UUID) (Challenge, error) {
	c, err := b.take(challengeID, byUserID)
	if err != nil {
		return Challenge{}, err
	}

	b.metrics.Challenge(metrics.ChallengeRejected)
	b.logger.Info().Str("challenge_id", c.ID.String()).Msg("challenge rejected")
	b.emit(c.FromUserID, ws.TypeChallengeRejected, c.payload(""))
	return c, nil
}

// take removes a live challenge addressed to byUserID. Expired challenges
// found here are dropped and reported to their sender.
func (b *Broker) take(challengeID, byUserID uuid.UUID) (Challenge, error) {
	b.mu.Lock()
	c, ok := b.challenges[challengeID]
	if !ok {
		b.mu.Unlock()
		return Challenge{}, apperror.NotFound(httperrors.ErrCodeChallengeNotFound, "challenge not found")
	}
	if !b.opts.Now().Before(c.ExpiresAt) {
		delete(b.challenges, challengeID)
		b.mu.Unlock()
		b.expired(c)
		return Challenge{}, apperror.NotFound(httperrors.ErrCodeChallengeExpired, "challenge expired")
	}
	if c.ToUserID != byUserID {
		b.mu.Unlock()
		return Challenge{}, apperror.Unauthorized(httperrors.ErrCodeNotOwner, "challenge is addressed to another user")
	}
	delete(b.challenges, challengeID)
	b.mu.Unlock()
	return c, nil
}

// Sweep drops every expired challenge and returns how many were removed.
func (b *Broker) Sweep(_ context.Context) int {
	now := b.opts.Now()

	b.mu.Lock()
	var expired []Challenge
	for id, c := range b.challenges {
		if !now.Before(c.ExpiresAt) {
			expired = append(expired, c)
			delete(b.challenges, id)
		}
	}
	b.mu.Unlock()

	for _, c := range expired {
		b.expired(c)
	}
	return len(expired)
}

func (b *Broker) expired(c Challenge) {
	b.metrics.Challenge(metrics.ChallengeExpired)
	b.logger.Debug().Str("challenge_id", c.ID.String()).Msg("challenge expired")
	b.emit(c.FromUserID, ws.TypeChallengeExpired, c.payload(""))
}

// Pending returns the number of live challenges.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.challenges)
}

func (b *Broker) emit(userID uuid.UUID, eventType string, payload any) {
	if b.notifier == nil {
		return
	}
	_ = b.notifier.Emit(userID, eventType, payload)
}
