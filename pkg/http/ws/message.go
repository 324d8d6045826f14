package ws

import (
	"encoding/json"
	"time"
)

// Event types for the live channel.
const (
	// Client -> Server
	TypeQuizJoin        = "quiz:join"
	TypeQuizStart       = "quiz:start"
	TypeQuizAnswer      = "quiz:answer"
	TypeQuizComplete    = "quiz:complete"
	TypeQuizAbandon     = "quiz:abandon"
	TypeRoomCreate      = "room:create"
	TypeRoomJoin        = "room:join"
	TypeRoomLeave       = "room:leave"
	TypeRoomReady       = "room:ready"
	TypeRoomStart       = "room:start"
	TypeRoomList        = "room:list"
	TypeChallengeSend   = "challenge:send"
	TypeChallengeAccept = "challenge:accept"
	TypeChallengeReject = "challenge:reject"
	TypeMessageSend     = "message:send"
	TypeTypingStart     = "typing:start"
	TypeTypingStop      = "typing:stop"
	TypeUserStatus      = "user:status"
	TypePing            = "ping"

	// Server -> Client acknowledgements
	TypeQuizJoined        = "quiz:joined"
	TypeQuizStarted       = "quiz:started"
	TypeQuizAnswered      = "quiz:answered"
	TypeQuizCompleted     = "quiz:completed"
	TypeQuizAbandoned     = "quiz:abandoned"
	TypeRoomCreated       = "room:created"
	TypeRoomJoined        = "room:joined"
	TypeRoomLeft          = "room:left"
	TypeRoomReadySet      = "room:ready_set"
	TypeChallengeSent     = "challenge:sent"
	TypeChallengeRejected = "challenge:rejected"
	TypeMessageSent       = "message:sent"
	TypeUserStatusUpdated = "user:status_updated"
	TypePong              = "pong"
	TypeError             = "error"

	// Server -> Client broadcasts
	TypeRoomPlayerJoined    = "room:player_joined"
	TypeRoomPlayerLeft      = "room:player_left"
	TypeRoomOwnerChanged    = "room:owner_changed"
	TypeRoomPlayerReady     = "room:player_ready"
	TypeRoomStarted         = "room:started"
	TypeRoomFinished        = "room:finished"
	TypeChallengeReceived   = "challenge:received"
	TypeChallengeAccepted   = "challenge:accepted"
	TypeChallengeExpired    = "challenge:expired"
	TypeMessageReceived     = "message:received"
	TypeFriendStatusChanged = "friend:status_changed"
	TypeFriendAchievement   = "friend:achievement"
	TypeAchievementUnlocked = "achievement:unlocked"
	TypeLeaderboardUpdated  = "leaderboard:updated"
)

// Message wraps all payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a message of the given type.
func NewMessage(eventType string, payload any) (Message, error) {
	msg := Message{Type: eventType}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type QuizJoinPayload struct {
	QuizID string `json:"quiz_id"`
}

type QuizStartPayload struct {
	QuizID string `json:"quiz_id,omitempty"`
	RoomID string `json:"room_id,omitempty"`
}

type QuizAnswerPayload struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	TimeSpent  float64 `json:"time_spent"`
}

type SessionPayload struct {
	SessionID string `json:"session_id"`
}

type RoomCreatePayload struct {
	QuizID     string `json:"quiz_id"`
	MaxPlayers int    `json:"max_players"`
	IsPrivate  bool   `json:"is_private"`
}

type RoomPayload struct {
	RoomID string `json:"room_id"`
}

type RoomReadyPayload struct {
	RoomID string `json:"room_id"`
	Ready  bool   `json:"ready"`
}

type ChallengeSendPayload struct {
	ToUserID string `json:"to_user_id"`
	QuizID   string `json:"quiz_id"`
}

type ChallengeRefPayload struct {
	ChallengeID string `json:"challenge_id"`
}

type MessageSendPayload struct {
	ToUserID string `json:"to_user_id"`
	Text     string `json:"text"`
}

type TypingPayload struct {
	ToUserID string `json:"to_user_id"`
}

type UserStatusPayload struct {
	Status string `json:"status"`
}

// Server Messages (outgoing)

type RoomMemberPayload struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	PlayerCount int    `json:"player_count"`
}

type RoomOwnerPayload struct {
	RoomID  string `json:"room_id"`
	OwnerID string `json:"owner_id"`
}

type RoomPlayerReadyPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Ready  bool   `json:"ready"`
}

type RoomStatusPayload struct {
	RoomID string `json:"room_id"`
	QuizID string `json:"quiz_id"`
	Status string `json:"status"`
}

type ChallengePayload struct {
	ChallengeID string    `json:"challenge_id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	QuizID      string    `json:"quiz_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	RoomID      string    `json:"room_id,omitempty"`
}

type ChatPayload struct {
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

type TypingNoticePayload struct {
	FromUserID string `json:"from_user_id"`
}

type FriendStatusPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Status      string `json:"status"`
}

type AchievementPayload struct {
	UserID       string   `json:"user_id"`
	DisplayName  string   `json:"display_name,omitempty"`
	Achievements []string `json:"achievements"`
}

type LeaderboardUpdatedPayload struct {
	QuizID string `json:"quiz_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
