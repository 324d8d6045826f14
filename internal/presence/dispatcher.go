// Package presence tracks who is online and fans social events out to friends.
package presence

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

const maxMessageLength = 1000

// Directory resolves the social graph. *repository.UserRepository implements it.
type Directory interface {
	FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Registry is the live connection registry. *ws.Hub implements it.
type Registry interface {
	IsOnline(userID uuid.UUID) bool
	Emit(userID uuid.UUID, eventType string, payload any) error
}

type member struct {
	status      string
	displayName string
	friends     []uuid.UUID
}

// Dispatcher keeps per-user status and the friend list loaded at login.
type Dispatcher struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*member

	directory Directory
	registry  Registry
	now       func() time.Time
	logger    zerolog.Logger
}

func NewDispatcher(directory Directory, registry Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		members:   make(map[uuid.UUID]*member),
		directory: directory,
		registry:  registry,
		now:       time.Now,
		logger:    logger.With().Str("component", "presence").Logger(),
	}
}

// Online records a new connection and tells connected friends.
func (d *Dispatcher) Online(ctx context.Context, userID uuid.UUID) {
	friends, err := d.directory.FriendIDs(ctx, userID)
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("friend lookup failed")
	}
	name, err := d.directory.DisplayName(ctx, userID)
	if err != nil {
		d.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("display name lookup failed")
	}

	d.mu.Lock()
	d.members[userID] = &member{status: StatusOnline, displayName: name, friends: friends}
	d.mu.Unlock()

	d.fanout(userID, StatusOnline)
}

// Offline forgets the user and tells connected friends. It does nothing when
// a newer connection for the user is already registered.
func (d *Dispatcher) Offline(_ context.Context, userID uuid.UUID) {
	if d.registry.IsOnline(userID) {
		d.logger.Debug().Str("user_id", userID.String()).Msg("offline skipped, user reconnected")
		return
	}
	d.fanout(userID, StatusOffline)

	d.mu.Lock()
	delete(d.members, userID)
	d.mu.Unlock()
}

// SetStatus changes the user's advertised status.
func (d *Dispatcher) SetStatus(_ context.Context, userID uuid.UUID, status string) error {
	switch status {
	case StatusOnline, StatusAway, StatusBusy:
	default:
		return apperror.Validation(httperrors.ErrCodeInvalidStatus, "status must be online, away or busy")
	}

	d.mu.Lock()
	m, ok := d.members[userID]
	if !ok {
		m = &member{}
		d.members[userID] = m
	}
	m.status = status
	d.mu.Unlock()

	d.fanout(userID, status)
	return nil
}

// Status returns the user's current status.
func (d *Dispatcher) Status(userID uuid.UUID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if m, ok := d.members[userID]; ok {
		return m.status
	}
	return StatusOffline
}

// AnnounceAchievements tells the user and their connected friends about new
// achievements.
func (d *Dispatcher) AnnounceAchievements(ctx context.Context, userID uuid.UUID, codes []string) {
	if len(codes) == 0 {
		return
	}
	friends, name := d.friendsOf(ctx, userID)
	payload := ws.AchievementPayload{UserID: userID.String(), DisplayName: name, Achievements: codes}

	d.deliver(userID, ws.TypeAchievementUnlocked, payload)
	for _, id := range friends {
		d.deliver(id, ws.TypeFriendAchievement, payload)
	}
}

// SendMessage relays a direct message. delivered is false when the target is
// offline; the message is then dropped.
func (d *Dispatcher) SendMessage(_ context.Context, fromUserID, toUserID uuid.UUID, text string) (ws.ChatPayload, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxMessageLength {
		return ws.ChatPayload{}, false, apperror.Validation(httperrors.ErrCodeValidationFailed, "message must be 1-1000 characters")
	}
	msg := ws.ChatPayload{
		FromUserID: fromUserID.String(),
		ToUserID:   toUserID.String(),
		Text:       text,
		SentAt:     d.now().UTC(),
	}
	return msg, d.deliver(toUserID, ws.TypeMessageReceived, msg), nil
}

// Typing relays a typing indicator when the target is online.
func (d *Dispatcher) Typing(fromUserID, toUserID uuid.UUID, started bool) {
	eventType := ws.TypeTypingStop
	if started {
		eventType = ws.TypeTypingStart
	}
	d.deliver(toUserID, eventType, ws.TypingNoticePayload{FromUserID: fromUserID.String()})
}

func (d *Dispatcher) fanout(userID uuid.UUID, status string) {
	d.mu.RLock()
	m, ok := d.members[userID]
	var friends []uuid.UUID
	var name string
	if ok {
		friends, name = m.friends, m.displayName
	}
	d.mu.RUnlock()

	payload := ws.FriendStatusPayload{UserID: userID.String(), DisplayName: name, Status: status}
	sent := 0
	for _, id := range friends {
		if d.deliver(id, ws.TypeFriendStatusChanged, payload) {
			sent++
		}
	}
	d.logger.Debug().Str("user_id", userID.String()).Str("status", status).Int("notified", sent).Msg("presence changed")
}

// friendsOf prefers the list cached at login and falls back to the directory.
func (d *Dispatcher) friendsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, string) {
	d.mu.RLock()
	m, ok := d.members[userID]
	if ok && m.friends != nil {
		friends, name := m.friends, m.displayName
		d.mu.RUnlock()
		return friends, name
	}
	d.mu.RUnlock()

	friends, err := d.directory.FriendIDs(ctx, userID)
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("friend lookup failed")
		return nil, ""
	}
	return friends, ""
}

// deliver sends to an online user and reports whether it was queued.
func (d *Dispatcher) deliver(userID uuid.UUID, eventType string, payload any) bool {
	if !d.registry.IsOnline(userID) {
		return false
	}
	return d.registry.Emit(userID, eventType, payload) == nil
}
