package room

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

type event struct {
	to      uuid.UUID
	kind    string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) Emit(userID uuid.UUID, eventType string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{to: userID, kind: eventType, payload: payload})
	return nil
}

func (n *recordingNotifier) ofKind(kind string) []event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []event
	for _, e := range n.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *recordingNotifier, *time.Time) {
	t.Helper()
	n := &recordingNotifier{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var seq atomic.Int64
	m := NewManager(n, nil, Options{
		MaxPlayers:  8,
		IdleTimeout: 10 * time.Minute,
		Now:         func() time.Time { return now },
		NewCode:     func() string { return strconv.Itoa(100000 + int(seq.Add(1))) },
	}, zerolog.Nop())
	return m, n, &now
}

func assertCode(t *testing.T, err error, kind apperror.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.Convert(err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, code, appErr.Code)
}

func create(t *testing.T, m *Manager, creator uuid.UUID, maxPlayers int) View {
	t.Helper()
	v, err := m.Create(context.Background(), CreateRequest{CreatorID: creator, QuizID: uuid.New(), MaxPlayers: maxPlayers})
	require.NoError(t, err)
	return v
}

func TestCreateValidatesMaxPlayers(t *testing.T) {
	m, _, _ := newTestManager(t)

	for _, n := range []int{0, 1, 9} {
		_, err := m.Create(context.Background(), CreateRequest{CreatorID: uuid.New(), MaxPlayers: n})
		assertCode(t, err, apperror.KindValidation, httperrors.ErrCodeInvalidMaxPlayer)
	}

	creator := uuid.New()
	v := create(t, m, creator, 2)
	assert.Len(t, v.RoomID, 6)
	assert.Equal(t, StatusWaiting, v.Status)
	require.Len(t, v.Players, 1)
	assert.Equal(t, creator.String(), v.Players[0].UserID)

	_, err := m.Create(context.Background(), CreateRequest{CreatorID: creator, MaxPlayers: 2})
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeAlreadyInRoom)
}

func TestRoomFullScenario(t *testing.T) {
	m, n, _ := newTestManager(t)
	creator, second, third := uuid.New(), uuid.New(), uuid.New()
	v := create(t, m, creator, 2)

	joined, err := m.Join(context.Background(), v.RoomID, second, "")
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)

	_, err = m.Join(context.Background(), v.RoomID, third, "")
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeRoomFull)

	_, err = m.Join(context.Background(), v.RoomID, second, "")
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeAlreadyInRoom)

	_, err = m.Join(context.Background(), "999999", third, "")
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeRoomNotFound)

	events := n.ofKind(ws.TypeRoomPlayerJoined)
	require.Len(t, events, 2)
	recipients := []uuid.UUID{events[0].to, events[1].to}
	assert.ElementsMatch(t, []uuid.UUID{creator, second}, recipients)
	assert.Equal(t, 2, events[0].payload.(ws.RoomMemberPayload).PlayerCount)
}

func TestConcurrentJoinsAdmitCapacity(t *testing.T) {
	for _, tc := range []struct{ joiners, capacity int }{{20, 5}, {3, 8}, {7, 8}} {
		m, _, _ := newTestManager(t)
		v := create(t, m, uuid.New(), tc.capacity)

		var admitted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < tc.joiners; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Join(context.Background(), v.RoomID, uuid.New(), ""); err == nil {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()

		want := min(tc.joiners, tc.capacity-1) // the creator holds a seat
		assert.EqualValues(t, want, admitted.Load())
		got, err := m.Get(v.RoomID)
		require.NoError(t, err)
		assert.Len(t, got.Players, want+1)
	}
}

func TestLeaveTransfersOwnershipAndDeletesEmptyRoom(t *testing.T) {
	m, n, _ := newTestManager(t)
	creator, second, third := uuid.New(), uuid.New(), uuid.New()
	v := create(t, m, creator, 4)
	_, err := m.Join(context.Background(), v.RoomID, second, "")
	require.NoError(t, err)
	_, err = m.Join(context.Background(), v.RoomID, third, "")
	require.NoError(t, err)

	require.NoError(t, m.Leave(context.Background(), v.RoomID, creator))

	got, err := m.Get(v.RoomID)
	require.NoError(t, err)
	assert.Equal(t, second.String(), got.CreatorID)
	owner := n.ofKind(ws.TypeRoomOwnerChanged)
	require.Len(t, owner, 2)
	assert.Equal(t, second.String(), owner[0].payload.(ws.RoomOwnerPayload).OwnerID)
	assert.Len(t, n.ofKind(ws.TypeRoomPlayerLeft), 2)

	err = m.Leave(context.Background(), v.RoomID, creator)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeNotInRoom)

	require.NoError(t, m.Leave(context.Background(), v.RoomID, second))
	roomID, ok := m.LeaveUser(context.Background(), third)
	assert.True(t, ok)
	assert.Equal(t, v.RoomID, roomID)

	_, err = m.Get(v.RoomID)
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeRoomNotFound)
	assert.Zero(t, m.Len())

	// everyone is free to open new rooms again
	create(t, m, third, 2)
}

func TestStartRules(t *testing.T) {
	m, n, _ := newTestManager(t)
	creator, guest := uuid.New(), uuid.New()
	v := create(t, m, creator, 4)

	_, err := m.SetReady(context.Background(), v.RoomID, creator, true)
	require.NoError(t, err)
	_, err = m.Start(context.Background(), v.RoomID, creator)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodePlayersNotReady)

	_, err = m.Join(context.Background(), v.RoomID, guest, "")
	require.NoError(t, err)

	_, err = m.Start(context.Background(), v.RoomID, guest)
	assertCode(t, err, apperror.KindUnauthorized, httperrors.ErrCodeNotOwner)

	_, err = m.Start(context.Background(), v.RoomID, creator)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodePlayersNotReady)

	_, err = m.PlayingQuiz(v.RoomID, guest)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeRoomNotPlaying)

	_, err = m.SetReady(context.Background(), v.RoomID, guest, true)
	require.NoError(t, err)
	started, err := m.Start(context.Background(), v.RoomID, creator)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, started.Status)
	assert.Len(t, n.ofKind(ws.TypeRoomStarted), 2)

	_, err = m.Start(context.Background(), v.RoomID, creator)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeRoomInProgress)
	_, err = m.Join(context.Background(), v.RoomID, uuid.New(), "")
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeRoomInProgress)

	quizID, err := m.PlayingQuiz(v.RoomID, guest)
	require.NoError(t, err)
	assert.Equal(t, v.QuizID, quizID.String())

	_, err = m.PlayingQuiz(v.RoomID, uuid.New())
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeNotInRoom)
}

func TestRoomFinishesWhenEveryoneDone(t *testing.T) {
	m, n, _ := newTestManager(t)
	creator, guest := uuid.New(), uuid.New()
	v := create(t, m, creator, 2)
	_, err := m.Join(context.Background(), v.RoomID, guest, "")
	require.NoError(t, err)
	for _, id := range []uuid.UUID{creator, guest} {
		_, err = m.SetReady(context.Background(), v.RoomID, id, true)
		require.NoError(t, err)
	}
	_, err = m.Start(context.Background(), v.RoomID, creator)
	require.NoError(t, err)

	m.MemberFinished(context.Background(), v.RoomID, creator)
	assert.Empty(t, n.ofKind(ws.TypeRoomFinished))

	_, err = m.PlayingQuiz(v.RoomID, creator)
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeRoomNotPlaying)

	m.MemberFinished(context.Background(), v.RoomID, guest)
	got, err := m.Get(v.RoomID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Len(t, n.ofKind(ws.TypeRoomFinished), 2)
}

func TestLeavingLastUnfinishedPlayerFinishesRoom(t *testing.T) {
	m, n, _ := newTestManager(t)
	creator, guest := uuid.New(), uuid.New()
	v := create(t, m, creator, 2)
	_, err := m.Join(context.Background(), v.RoomID, guest, "")
	require.NoError(t, err)
	for _, id := range []uuid.UUID{creator, guest} {
		_, err = m.SetReady(context.Background(), v.RoomID, id, true)
		require.NoError(t, err)
	}
	_, err = m.Start(context.Background(), v.RoomID, creator)
	require.NoError(t, err)

	m.MemberFinished(context.Background(), v.RoomID, creator)
	require.NoError(t, m.Leave(context.Background(), v.RoomID, guest))

	got, err := m.Get(v.RoomID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Len(t, n.ofKind(ws.TypeRoomFinished), 1)
}

func TestListOpenAndDuel(t *testing.T) {
	m, _, now := newTestManager(t)
	public := create(t, m, uuid.New(), 3)
	*now = now.Add(time.Second)
	full := create(t, m, uuid.New(), 2)
	_, err := m.Join(context.Background(), full.RoomID, uuid.New(), "")
	require.NoError(t, err)
	_, err = m.Create(context.Background(), CreateRequest{CreatorID: uuid.New(), MaxPlayers: 2, IsPrivate: true})
	require.NoError(t, err)

	a, b := uuid.New(), uuid.New()
	duel, err := m.StartDuel(context.Background(), uuid.New(), a, b)
	require.NoError(t, err)
	assert.True(t, duel.IsPrivate)
	assert.Equal(t, 2, duel.MaxPlayers)
	assert.Len(t, duel.Players, 2)

	open := m.ListOpen()
	require.Len(t, open, 1)
	assert.Equal(t, public.RoomID, open[0].RoomID)

	_, err = m.StartDuel(context.Background(), uuid.New(), a, uuid.New())
	assertCode(t, err, apperror.KindConflict, httperrors.ErrCodeAlreadyInRoom)
}

func TestReapClosesIdleRooms(t *testing.T) {
	m, _, now := newTestManager(t)
	idle := create(t, m, uuid.New(), 2)
	*now = now.Add(8 * time.Minute)
	busy := create(t, m, uuid.New(), 2)

	*now = now.Add(3 * time.Minute)
	assert.Equal(t, 1, m.Reap(context.Background()))

	_, err := m.Get(idle.RoomID)
	assertCode(t, err, apperror.KindNotFound, httperrors.ErrCodeRoomNotFound)
	_, err = m.Get(busy.RoomID)
	assert.NoError(t, err)
}
