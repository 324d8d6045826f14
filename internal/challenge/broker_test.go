package challenge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/room"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

type onlineSet map[uuid.UUID]bool

func (s onlineSet) IsOnline(userID uuid.UUID) bool { return s[userID] }

type delivery struct {
	to      uuid.UUID
	kind    string
	payload ws.ChallengePayload
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []delivery
}

func (n *recordingNotifier) Emit(userID uuid.UUID, eventType string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, _ := payload.(ws.ChallengePayload)
	n.sent = append(n.sent, delivery{to: userID, kind: eventType, payload: p})
	return nil
}

func (n *recordingNotifier) to(userID uuid.UUID) []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []delivery
	for _, d := range n.sent {
		if d.to == userID {
			out = append(out, d)
		}
	}
	return out
}

type fixture struct {
	broker   *Broker
	rooms    *room.Manager
	notifier *recordingNotifier
	online   onlineSet
	now      *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		notifier: &recordingNotifier{},
		online:   onlineSet{},
		now:      &now,
	}
	clock := func() time.Time { return *f.now }
	f.rooms = room.NewManager(nil, nil, room.Options{MaxPlayers: 4, Now: clock}, zerolog.Nop())
	f.broker = NewBroker(f.online, f.notifier, f.rooms, nil, Options{TTL: 5 * time.Minute, Now: clock}, zerolog.Nop())
	return f
}

func assertCode(t *testing.T, err error, kind apperror.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.Convert(err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, code, appErr.Code)
}

func TestSendRejectsOfflineAndSelf(t *testing.T) {
	f := newFixture(t)
	from, to := uuid.New(), uuid.New()

	_, err := f.broker.Send(context.Background(), from, to, uuid.New())
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeUserOffline)

	f.online[from] = true
	_, err = f.broker.Send(context.Background(), from, from, uuid.New())
	assertCode(t, err, apperror.KindValidation, httperrors.ErrCodeSelfChallenge)

	assert.Zero(t, f.broker.Pending())
	assert.Empty(t, f.notifier.sent)
}

func TestAcceptOpensDuel(t *testing.T) {
	f := newFixture(t)
	from, to, quizID := uuid.New(), uuid.New(), uuid.New()
	f.online[to] = true

	c, err := f.broker.Send(context.Background(), from, to, quizID)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(5*time.Minute), c.ExpiresAt)

	received := f.notifier.to(to)
	require.Len(t, received, 1)
	assert.Equal(t, ws.TypeChallengeReceived, received[0].kind)
	assert.Equal(t, c.ID.String(), received[0].payload.ChallengeID)

	_, _, err = f.broker.Accept(context.Background(), c.ID, uuid.New())
	assertCode(t, err, apperror.KindUnauthorized, httperrors.ErrCodeNotOwner)

	_, duel, err := f.broker.Accept(context.Background(), c.ID, to)
	require.NoError(t, err)
	assert.True(t, duel.IsPrivate)
	assert.Equal(t, quizID.String(), duel.QuizID)
	assert.Equal(t, from.String(), duel.CreatorID)

	for _, id := range []uuid.UUID{from, to} {
		got := f.notifier.to(id)
		last := got[len(got)-1]
		assert.Equal(t, ws.TypeChallengeAccepted, last.kind)
		assert.Equal(t, duel.RoomID, last.payload.RoomID)
	}

	_, _, err = f.broker.Accept(context.Background(), c.ID, to)
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeChallengeNotFound)
}

func TestAcceptKeepsChallengeWhenDuelCannotOpen(t *testing.T) {
	f := newFixture(t)
	from, to := uuid.New(), uuid.New()
	f.online[to] = true

	_, err := f.rooms.Create(context.Background(), room.CreateRequest{CreatorID: to, MaxPlayers: 2})
	require.NoError(t, err)

	c, err := f.broker.Send(context.Background(), from, to, uuid.New())
	require.NoError(t, err)

	_, _, err = f.broker.Accept(context.Background(), c.ID, to)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeAlreadyInRoom)
	assert.Equal(t, 1, f.broker.Pending())
}

func TestExpiredChallengeScenario(t *testing.T) {
	f := newFixture(t)
	from, to := uuid.New(), uuid.New()
	f.online[to] = true

	c, err := f.broker.Send(context.Background(), from, to, uuid.New())
	require.NoError(t, err)

	*f.now = f.now.Add(5*time.Minute + time.Second)
	_, _, err = f.broker.Accept(context.Background(), c.ID, to)
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeChallengeExpired)

	sender := f.notifier.to(from)
	require.Len(t, sender, 1)
	assert.Equal(t, ws.TypeChallengeExpired, sender[0].kind)
	assert.Zero(t, f.rooms.Len())

	_, _, err = f.broker.Accept(context.Background(), c.ID, to)
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeChallengeNotFound)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	from, to := uuid.New(), uuid.New()
	f.online[to] = true

	c, err := f.broker.Send(context.Background(), from, to, uuid.New())
	require.NoError(t, err)

	_, err = f.broker.Reject(context.Background(), c.ID, from)
	assertCode(t, err, apperror.KindUnauthorized, httperrors.ErrCodeNotOwner)

	_, err = f.broker.Reject(context.Background(), c.ID, to)
	require.NoError(t, err)
	sender := f.notifier.to(from)
	require.Len(t, sender, 1)
	assert.Equal(t, ws.TypeChallengeRejected, sender[0].kind)
	assert.Zero(t, f.broker.Pending())
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	from, to := uuid.New(), uuid.New()
	f.online[to] = true

	_, err := f.broker.Send(context.Background(), from, to, uuid.New())
	require.NoError(t, err)
	*f.now = f.now.Add(4 * time.Minute)
	_, err = f.broker.Send(context.Background(), from, to, uuid.New())
	require.NoError(t, err)

	*f.now = f.now.Add(90 * time.Second)
	assert.Equal(t, 1, f.broker.Sweep(context.Background()))
	assert.Equal(t, 1, f.broker.Pending())

	expired := f.notifier.to(from)
	require.Len(t, expired, 1)
	assert.Equal(t, ws.TypeChallengeExpired, expired[0].kind)
}
