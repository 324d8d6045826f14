package room

import (
	"context"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// Notifier delivers events to a connected user. *ws.Hub implements it.
type Notifier interface {
	Emit(userID uuid.UUID, eventType string, payload any) error
}

// Options tunes room limits.
type Options struct {
	MaxPlayers  int           // upper bound accepted by Create
	IdleTimeout time.Duration // rooms untouched this long are closed by Reap
	Now         func() time.Time
	NewCode     func() string
}

// Manager owns all rooms. The map lock only guards lookup and membership
// bookkeeping; every room mutation happens under that room's own lock.
// Lock order is room.mu before m.mu.
type Manager struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	members map[uuid.UUID]string // user_id -> room_id

	notifier Notifier
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger
}

// NewManager creates a room manager. notifier and m may be nil.
func NewManager(notifier Notifier, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Manager {
	if opts.MaxPlayers < 2 {
		opts.MaxPlayers = 10
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewCode == nil {
		opts.NewCode = randomCode
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		members:  make(map[uuid.UUID]string),
		notifier: notifier,
		metrics:  m,
		opts:     opts,
		logger:   logger.With().Str("component", "room_manager").Logger(),
	}
}

// randomCode creates a 6-digit numeric code without a leading zero.
func randomCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// Create opens a waiting room seeded with its creator.
func (m *Manager) Create(_ context.Context, req CreateRequest) (View, error) {
	if req.MaxPlayers < 2 || req.MaxPlayers > m.opts.MaxPlayers {
		return View{}, apperror.Validation(httperrors.ErrCodeInvalidMaxPlayer, "max_players out of range").
			WithMessagef("max_players must be between 2 and %d", m.opts.MaxPlayers)
	}

	now := m.opts.Now()
	room := &Room{
		QuizID:     req.QuizID,
		CreatorID:  req.CreatorID,
		MaxPlayers: req.MaxPlayers,
		IsPrivate:  req.IsPrivate,
		Players:    []Player{{UserID: req.CreatorID, ConnectionID: req.ConnectionID, JoinedAt: now}},
		Status:     StatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.insert(room); err != nil {
		return View{}, err
	}

	m.logger.Info().
		Str("room_id", room.ID).
		Str("creator_id", req.CreatorID.String()).
		Int("max_players", req.MaxPlayers).
		Bool("private", req.IsPrivate).
		Msg("room created")

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.view(), nil
}

// StartDuel opens a private two-player room holding both users.
func (m *Manager) StartDuel(_ context.Context, quizID, challengerID, opponentID uuid.UUID) (View, error) {
	now := m.opts.Now()
	room := &Room{
		QuizID:     quizID,
		CreatorID:  challengerID,
		MaxPlayers: 2,
		IsPrivate:  true,
		Players: []Player{
			{UserID: challengerID, JoinedAt: now},
			{UserID: opponentID, JoinedAt: now},
		},
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.insert(room); err != nil {
		return View{}, err
	}

	m.logger.Info().
		Str("room_id", room.ID).
		Str("challenger_id", challengerID.String()).
		Str("opponent_id", opponentID.String()).
		Msg("duel room created")

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.view(), nil
}

// insert assigns a fresh code and registers the room and its players.
func (m *Manager) insert(room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range room.Players {
		if _, busy := m.members[p.UserID]; busy {
			return apperror.Conflict(httperrors.ErrCodeAlreadyInRoom, "user is already in a room")
		}
	}
	for {
		code := m.opts.NewCode()
		if _, exists := m.rooms[code]; !exists {
			room.ID = code
			break
		}
	}
	m.rooms[room.ID] = room
	for _, p := range room.Players {
		m.members[p.UserID] = room.ID
	}
	m.metrics.RoomOpened()
	return nil
}

// Join adds userID to a waiting room and announces it to every member.
func (m *Manager) Join(_ context.Context, roomID string, userID uuid.UUID, connectionID string) (View, error) {
	room, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return View{}, errRoomNotFound
	}
	if room.Status != StatusWaiting {
		return View{}, apperror.Conflict(httperrors.ErrCodeRoomInProgress, "room is not accepting players")
	}
	if room.indexOf(userID) >= 0 {
		return View{}, apperror.Conflict(httperrors.ErrCodeAlreadyInRoom, "user is already in this room")
	}
	if len(room.Players) >= room.MaxPlayers {
		return View{}, apperror.Conflict(httperrors.ErrCodeRoomFull, "room is full")
	}
	if !m.claim(userID, room.ID) {
		return View{}, apperror.Conflict(httperrors.ErrCodeAlreadyInRoom, "user is already in another room")
	}

	room.Players = append(room.Players, Player{UserID: userID, ConnectionID: connectionID, JoinedAt: m.opts.Now()})
	room.UpdatedAt = m.opts.Now()

	m.logger.Info().
		Str("room_id", room.ID).
		Str("user_id", userID.String()).
		Int("player_count", len(room.Players)).
		Msg("player joined room")

	m.broadcast(room, ws.TypeRoomPlayerJoined, ws.RoomMemberPayload{
		RoomID:      room.ID,
		UserID:      userID.String(),
		PlayerCount: len(room.Players),
	})
	return room.view(), nil
}

// Leave removes userID from the room. The last member leaving deletes the
// room; the creator leaving hands ownership to the earliest remaining member.
func (m *Manager) Leave(_ context.Context, roomID string, userID uuid.UUID) error {
	room, err := m.lookup(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return errRoomNotFound
	}
	idx := room.indexOf(userID)
	if idx < 0 {
		return apperror.Conflict(httperrors.ErrCodeNotInRoom, "user is not in this room")
	}
	m.removeLocked(room, idx)
	return nil
}

// LeaveUser releases whatever room the user is in. Used when a connection drops.
func (m *Manager) LeaveUser(ctx context.Context, userID uuid.UUID) (string, bool) {
	m.mu.Lock()
	roomID, ok := m.members[userID]
	m.mu.Unlock()
	if !ok {
		return "", false
	}
	if err := m.Leave(ctx, roomID, userID); err != nil {
		return "", false
	}
	return roomID, true
}

func (m *Manager) removeLocked(room *Room, idx int) {
	userID := room.Players[idx].UserID
	room.Players = slices.Delete(room.Players, idx, idx+1)
	room.UpdatedAt = m.opts.Now()
	m.release(userID, room.ID)

	m.logger.Info().
		Str("room_id", room.ID).
		Str("user_id", userID.String()).
		Int("player_count", len(room.Players)).
		Msg("player left room")

	if len(room.Players) == 0 {
		m.deleteLocked(room)
		return
	}

	if room.CreatorID == userID {
		room.CreatorID = room.Players[0].UserID
		m.broadcast(room, ws.TypeRoomOwnerChanged, ws.RoomOwnerPayload{
			RoomID:  room.ID,
			OwnerID: room.CreatorID.String(),
		})
	}
	m.broadcast(room, ws.TypeRoomPlayerLeft, ws.RoomMemberPayload{
		RoomID:      room.ID,
		UserID:      userID.String(),
		PlayerCount: len(room.Players),
	})

	if room.Status == StatusPlaying && room.allFinished() {
		m.finishLocked(room)
	}
}

// SetReady toggles a member's ready flag while the room is waiting.
func (m *Manager) SetReady(_ context.Context, roomID string, userID uuid.UUID, ready bool) (View, error) {
	room, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return View{}, errRoomNotFound
	}
	idx := room.indexOf(userID)
	if idx < 0 {
		return View{}, apperror.Conflict(httperrors.ErrCodeNotInRoom, "user is not in this room")
	}
	if room.Status != StatusWaiting {
		return View{}, apperror.Conflict(httperrors.ErrCodeRoomInProgress, "room already started")
	}

	room.Players[idx].Ready = ready
	room.UpdatedAt = m.opts.Now()
	m.broadcast(room, ws.TypeRoomPlayerReady, ws.RoomPlayerReadyPayload{
		RoomID: room.ID,
		UserID: userID.String(),
		Ready:  ready,
	})
	return room.view(), nil
}

// Start moves a waiting room to playing. Only the creator may start it, and
// only once at least two members are all ready.
func (m *Manager) Start(_ context.Context, roomID string, userID uuid.UUID) (View, error) {
	room, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return View{}, errRoomNotFound
	}
	if room.CreatorID != userID {
		return View{}, apperror.Unauthorized(httperrors.ErrCodeNotOwner, "only the room creator can start")
	}
	if room.Status != StatusWaiting {
		return View{}, apperror.Conflict(httperrors.ErrCodeRoomInProgress, "room already started")
	}
	if len(room.Players) < 2 || !room.allReady() {
		return View{}, apperror.Conflict(httperrors.ErrCodePlayersNotReady, "every player must be ready")
	}

	room.Status = StatusPlaying
	room.UpdatedAt = m.opts.Now()
	for i := range room.Players {
		room.Players[i].Finished = false
	}

	m.logger.Info().
		Str("room_id", room.ID).
		Str("quiz_id", room.QuizID.String()).
		Int("player_count", len(room.Players)).
		Msg("room started")

	m.broadcast(room, ws.TypeRoomStarted, ws.RoomStatusPayload{
		RoomID: room.ID,
		QuizID: room.QuizID.String(),
		Status: room.Status,
	})
	return room.view(), nil
}

// PlayingQuiz returns the quiz a member may start a session for.
func (m *Manager) PlayingQuiz(roomID string, userID uuid.UUID) (uuid.UUID, error) {
	room, err := m.lookup(roomID)
	if err != nil {
		return uuid.Nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return uuid.Nil, errRoomNotFound
	}
	idx := room.indexOf(userID)
	if idx < 0 {
		return uuid.Nil, apperror.Conflict(httperrors.ErrCodeNotInRoom, "user is not in this room")
	}
	if room.Status != StatusPlaying || room.Players[idx].Finished {
		return uuid.Nil, apperror.Conflict(httperrors.ErrCodeRoomNotPlaying, "room is not playing")
	}
	return room.QuizID, nil
}

// MemberFinished records that a member's session ended. When every member is
// done the room becomes finished.
func (m *Manager) MemberFinished(_ context.Context, roomID string, userID uuid.UUID) {
	room, err := m.lookup(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted || room.Status != StatusPlaying {
		return
	}
	idx := room.indexOf(userID)
	if idx < 0 {
		return
	}
	room.Players[idx].Finished = true
	room.UpdatedAt = m.opts.Now()
	if room.allFinished() {
		m.finishLocked(room)
	}
}

func (m *Manager) finishLocked(room *Room) {
	room.Status = StatusFinished
	m.logger.Info().Str("room_id", room.ID).Msg("room finished")
	m.broadcast(room, ws.TypeRoomFinished, ws.RoomStatusPayload{
		RoomID: room.ID,
		QuizID: room.QuizID.String(),
		Status: room.Status,
	})
}

// Get returns a snapshot of the room.
func (m *Manager) Get(roomID string) (View, error) {
	room, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.deleted {
		return View{}, errRoomNotFound
	}
	return room.view(), nil
}

// RoomOf returns the room the user belongs to, if any.
func (m *Manager) RoomOf(userID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.members[userID]
	return id, ok
}

// ListOpen returns public waiting rooms with free seats, oldest first.
func (m *Manager) ListOpen() []View {
	var open []View
	for _, room := range m.snapshot() {
		room.mu.Lock()
		if !room.deleted && !room.IsPrivate && room.Status == StatusWaiting && len(room.Players) < room.MaxPlayers {
			open = append(open, room.view())
		}
		room.mu.Unlock()
	}
	slices.SortFunc(open, func(a, b View) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return open
}

// Len returns the number of live rooms.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Reap closes rooms that have seen no activity within the idle timeout.
func (m *Manager) Reap(_ context.Context) int {
	now := m.opts.Now()
	closed := 0
	for _, room := range m.snapshot() {
		room.mu.Lock()
		if !room.deleted && now.Sub(room.UpdatedAt) > m.opts.IdleTimeout {
			m.logger.Info().
				Str("room_id", room.ID).
				Str("status", room.Status).
				Int("player_count", len(room.Players)).
				Msg("closing idle room")
			m.deleteLocked(room)
			closed++
		}
		room.mu.Unlock()
	}
	return closed
}

func (m *Manager) snapshot() []*Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// deleteLocked removes the room and releases its remaining members. The
// caller holds room.mu.
func (m *Manager) deleteLocked(room *Room) {
	room.deleted = true
	m.mu.Lock()
	if m.rooms[room.ID] == room {
		delete(m.rooms, room.ID)
	}
	for _, p := range room.Players {
		if m.members[p.UserID] == room.ID {
			delete(m.members, p.UserID)
		}
	}
	m.mu.Unlock()
	m.metrics.RoomClosed()
	m.logger.Info().Str("room_id", room.ID).Msg("room deleted")
}

func (m *Manager) lookup(roomID string) (*Room, error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return nil, errRoomNotFound
	}
	return room, nil
}

// claim records userID as a member of roomID unless it already sits elsewhere.
func (m *Manager) claim(userID uuid.UUID, roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.members[userID]; ok && current != roomID {
		return false
	}
	m.members[userID] = roomID
	return true
}

func (m *Manager) release(userID uuid.UUID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == roomID {
		delete(m.members, userID)
	}
}

// broadcast fans an event out to every member. Delivery is best-effort.
func (m *Manager) broadcast(room *Room, eventType string, payload any) {
	if m.notifier == nil {
		return
	}
	for _, id := range room.memberIDs() {
		_ = m.notifier.Emit(id, eventType, payload)
	}
}

var errRoomNotFound = apperror.NotFound(httperrors.ErrCodeRoomNotFound, "room not found")
