package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Player is a room member.
type Player struct {
	UserID       uuid.UUID
	ConnectionID string
	Ready        bool
	Finished     bool
	JoinedAt     time.Time
}

// Room is a multiplayer lobby. Fields are guarded by mu.
type Room struct {
	ID         string
	QuizID     uuid.UUID
	CreatorID  uuid.UUID
	MaxPlayers int
	IsPrivate  bool
	Players    []Player // join order
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	mu      sync.Mutex
	deleted bool
}

func (r *Room) indexOf(userID uuid.UUID) int {
	for i, p := range r.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) allReady() bool {
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) allFinished() bool {
	for _, p := range r.Players {
		if !p.Finished {
			return false
		}
	}
	return true
}

func (r *Room) memberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.UserID
	}
	return ids
}

// CreateRequest opens a new room.
type CreateRequest struct {
	CreatorID    uuid.UUID
	ConnectionID string
	QuizID       uuid.UUID
	MaxPlayers   int
	IsPrivate    bool
}

// PlayerView is the public shape of a member.
type PlayerView struct {
	UserID   string    `json:"user_id"`
	Ready    bool      `json:"ready"`
	Finished bool      `json:"finished"`
	JoinedAt time.Time `json:"joined_at"`
}

// View is a consistent snapshot of a room taken under its lock.
type View struct {
	RoomID     string       `json:"room_id"`
	QuizID     string       `json:"quiz_id"`
	CreatorID  string       `json:"creator_id"`
	MaxPlayers int          `json:"max_players"`
	IsPrivate  bool         `json:"is_private"`
	Status     string       `json:"status"`
	Players    []PlayerView `json:"players"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (r *Room) view() View {
	players := make([]PlayerView, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerView{
			UserID:   p.UserID.String(),
			Ready:    p.Ready,
			Finished: p.Finished,
			JoinedAt: p.JoinedAt,
		}
	}
	return View{
		RoomID:     r.ID,
		QuizID:     r.QuizID.String(),
		CreatorID:  r.CreatorID.String(),
		MaxPlayers: r.MaxPlayers,
		IsPrivate:  r.IsPrivate,
		Status:     r.Status,
		Players:    players,
		CreatedAt:  r.CreatedAt,
	}
}
