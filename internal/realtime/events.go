package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/room"
	"github.com/gokatarajesh/quiz-live/internal/session"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// reply is what a handler sends back to the requesting connection. An empty
// type means the event is answered through broadcasts only.
type reply struct {
	Type    string
	Payload any
}

type eventFunc func(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error)

func (h *Handler) routes() map[string]eventFunc {
	return map[string]eventFunc{
		ws.TypePing:            h.handlePing,
		ws.TypeQuizJoin:        h.handleQuizJoin,
		ws.TypeQuizStart:       h.handleQuizStart,
		ws.TypeQuizAnswer:      h.handleQuizAnswer,
		ws.TypeQuizComplete:    h.handleQuizComplete,
		ws.TypeQuizAbandon:     h.handleQuizAbandon,
		ws.TypeRoomCreate:      h.handleRoomCreate,
		ws.TypeRoomJoin:        h.handleRoomJoin,
		ws.TypeRoomLeave:       h.handleRoomLeave,
		ws.TypeRoomReady:       h.handleRoomReady,
		ws.TypeRoomStart:       h.handleRoomStart,
		ws.TypeRoomList:        h.handleRoomList,
		ws.TypeChallengeSend:   h.handleChallengeSend,
		ws.TypeChallengeAccept: h.handleChallengeAccept,
		ws.TypeChallengeReject: h.handleChallengeReject,
		ws.TypeMessageSend:     h.handleMessageSend,
		ws.TypeTypingStart:     h.handleTyping(true),
		ws.TypeTypingStop:      h.handleTyping(false),
		ws.TypeUserStatus:      h.handleUserStatus,
	}
}

// dispatch routes one inbound event and writes its ack or error back to c.
func (h *Handler) dispatch(ctx context.Context, c *ws.Connection, msg ws.Message) error {
	fn, ok := h.events[msg.Type]
	if !ok {
		h.Metrics.Event("unknown", "error")
		return h.sendError(c, msg, apperror.Validation(httperrors.ErrCodeUnknownMessageType,
			fmt.Sprintf("Unknown message type: %s", msg.Type)))
	}

	out, err := fn(ctx, c, msg.Payload)
	if err != nil {
		h.Metrics.Event(msg.Type, "error")
		if apperror.KindOf(err) == apperror.KindInternal {
			h.logger.Error().Err(err).Str("type", msg.Type).Str("user_id", c.UserID.String()).Msg("event failed")
		}
		return h.sendError(c, msg, err)
	}
	h.Metrics.Event(msg.Type, "ok")

	if out.Type == "" {
		return nil
	}
	resp, err := ws.NewMessage(out.Type, out.Payload)
	if err != nil {
		return err
	}
	resp.RequestID = msg.RequestID
	return c.Send(resp)
}

func (h *Handler) sendError(c *ws.Connection, msg ws.Message, err error) error {
	appErr := apperror.Convert(err)
	resp, mErr := ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    appErr.Code,
		Message: appErr.Message,
		Event:   msg.Type,
	})
	if mErr != nil {
		return mErr
	}
	resp.RequestID = msg.RequestID
	return c.Send(resp)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apperror.Validation(httperrors.ErrCodeInvalidPayload, "Invalid payload")
	}
	return nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(httperrors.ErrCodeInvalidPayload, field+" must be a UUID")
	}
	return id, nil
}

func (h *Handler) handlePing(context.Context, *ws.Connection, json.RawMessage) (reply, error) {
	return reply{Type: ws.TypePong}, nil
}

// Sessions

func (h *Handler) handleQuizJoin(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.QuizJoinPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	quizID, err := parseID("quiz_id", req.QuizID)
	if err != nil {
		return reply{}, err
	}
	preview, err := h.Sessions.Preview(ctx, c.UserID, quizID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeQuizJoined, preview}, nil
}

func (h *Handler) handleQuizStart(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.QuizStartPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	start := session.StartRequest{UserID: c.UserID, RoomID: req.RoomID, ConnectionID: c.ID}
	if req.RoomID == "" {
		quizID, err := parseID("quiz_id", req.QuizID)
		if err != nil {
			return reply{}, err
		}
		start.QuizID = quizID
	}
	resp, err := h.Sessions.Start(ctx, start)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeQuizStarted, resp}, nil
}

func (h *Handler) handleQuizAnswer(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.QuizAnswerPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	sessionID, err := parseID("session_id", req.SessionID)
	if err != nil {
		return reply{}, err
	}
	questionID, err := parseID("question_id", req.QuestionID)
	if err != nil {
		return reply{}, err
	}
	resp, err := h.Sessions.SubmitAnswer(ctx, session.SubmitRequest{
		SessionID:        sessionID,
		UserID:           c.UserID,
		QuestionID:       questionID,
		Answer:           req.Answer,
		TimeSpentSeconds: req.TimeSpent,
	})
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeQuizAnswered, resp}, nil
}

func (h *Handler) handleQuizComplete(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.SessionPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	sessionID, err := parseID("session_id", req.SessionID)
	if err != nil {
		return reply{}, err
	}
	result, err := h.Sessions.Complete(ctx, sessionID, c.UserID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeQuizCompleted, result}, nil
}

func (h *Handler) handleQuizAbandon(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.SessionPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	sessionID, err := parseID("session_id", req.SessionID)
	if err != nil {
		return reply{}, err
	}
	if err := h.Sessions.Abandon(ctx, sessionID, c.UserID); err != nil {
		return reply{}, err
	}
	return reply{ws.TypeQuizAbandoned, req}, nil
}

// Rooms

func (h *Handler) handleRoomCreate(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.RoomCreatePayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	quizID, err := parseID("quiz_id", req.QuizID)
	if err != nil {
		return reply{}, err
	}
	view, err := h.Rooms.Create(ctx, room.CreateRequest{
		CreatorID:    c.UserID,
		ConnectionID: c.ID,
		QuizID:       quizID,
		MaxPlayers:   req.MaxPlayers,
		IsPrivate:    req.IsPrivate,
	})
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeRoomCreated, view}, nil
}

func (h *Handler) handleRoomJoin(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.RoomPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	view, err := h.Rooms.Join(ctx, req.RoomID, c.UserID, c.ID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeRoomJoined, view}, nil
}

func (h *Handler) handleRoomLeave(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.RoomPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	if err := h.Rooms.Leave(ctx, req.RoomID, c.UserID); err != nil {
		return reply{}, err
	}
	return reply{ws.TypeRoomLeft, req}, nil
}

func (h *Handler) handleRoomReady(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.RoomReadyPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	view, err := h.Rooms.SetReady(ctx, req.RoomID, c.UserID, req.Ready)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeRoomReadySet, view}, nil
}

func (h *Handler) handleRoomStart(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.RoomPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	view, err := h.Rooms.Start(ctx, req.RoomID, c.UserID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeRoomStarted, view}, nil
}

type roomList struct {
	Rooms []room.View `json:"rooms"`
}

func (h *Handler) handleRoomList(context.Context, *ws.Connection, json.RawMessage) (reply, error) {
	rooms := h.Rooms.ListOpen()
	if rooms == nil {
		rooms = []room.View{}
	}
	return reply{ws.TypeRoomList, roomList{Rooms: rooms}}, nil
}

// Challenges

func (h *Handler) handleChallengeSend(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.ChallengeSendPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	toUserID, err := parseID("to_user_id", req.ToUserID)
	if err != nil {
		return reply{}, err
	}
	quizID, err := parseID("quiz_id", req.QuizID)
	if err != nil {
		return reply{}, err
	}
	ch, err := h.Challenges.Send(ctx, c.UserID, toUserID, quizID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeChallengeSent, ws.ChallengePayload{
		ChallengeID: ch.ID.String(),
		FromUserID:  ch.FromUserID.String(),
		ToUserID:    ch.ToUserID.String(),
		QuizID:      ch.QuizID.String(),
		ExpiresAt:   ch.ExpiresAt,
	}}, nil
}

func (h *Handler) handleChallengeAccept(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.ChallengeRefPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	id, err := parseID("challenge_id", req.ChallengeID)
	if err != nil {
		return reply{}, err
	}
	ch, duel, err := h.Challenges.Accept(ctx, id, c.UserID)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeChallengeAccepted, ws.ChallengePayload{
		ChallengeID: ch.ID.String(),
		FromUserID:  ch.FromUserID.String(),
		ToUserID:    ch.ToUserID.String(),
		QuizID:      ch.QuizID.String(),
		ExpiresAt:   ch.ExpiresAt,
		RoomID:      duel.RoomID,
	}}, nil
}

func (h *Handler) handleChallengeReject(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.ChallengeRefPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	id, err := parseID("challenge_id", req.ChallengeID)
	if err != nil {
		return reply{}, err
	}
	if _, err := h.Challenges.Reject(ctx, id, c.UserID); err != nil {
		return reply{}, err
	}
	return reply{ws.TypeChallengeRejected, req}, nil
}

// Presence

type messageSent struct {
	Message   ws.ChatPayload `json:"message"`
	Delivered bool           `json:"delivered"`
}

func (h *Handler) handleMessageSend(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.MessageSendPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	toUserID, err := parseID("to_user_id", req.ToUserID)
	if err != nil {
		return reply{}, err
	}
	msg, delivered, err := h.Presence.SendMessage(ctx, c.UserID, toUserID, req.Text)
	if err != nil {
		return reply{}, err
	}
	return reply{ws.TypeMessageSent, messageSent{Message: msg, Delivered: delivered}}, nil
}

func (h *Handler) handleTyping(started bool) eventFunc {
	return func(_ context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
		var req ws.TypingPayload
		if err := decode(payload, &req); err != nil {
			return reply{}, err
		}
		toUserID, err := parseID("to_user_id", req.ToUserID)
		if err != nil {
			return reply{}, err
		}
		h.Presence.Typing(c.UserID, toUserID, started)
		return reply{}, nil
	}
}

func (h *Handler) handleUserStatus(ctx context.Context, c *ws.Connection, payload json.RawMessage) (reply, error) {
	var req ws.UserStatusPayload
	if err := decode(payload, &req); err != nil {
		return reply{}, err
	}
	if err := h.Presence.SetStatus(ctx, c.UserID, req.Status); err != nil {
		return reply{}, err
	}
	return reply{ws.TypeUserStatusUpdated, req}, nil
}
