// Package realtime terminates the live event channel and routes client events
// to the session, room, challenge and presence components.
package realtime

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth"
	"github.com/gokatarajesh/quiz-live/internal/challenge"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/presence"
	"github.com/gokatarajesh/quiz-live/internal/room"
	"github.com/gokatarajesh/quiz-live/internal/session"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
	"github.com/gokatarajesh/quiz-live/pkg/http/ws"
)

// Deps groups the components the router talks to.
type Deps struct {
	Hub        *ws.Hub
	Sessions   *session.Service
	Rooms      *room.Manager
	Challenges *challenge.Broker
	Presence   *presence.Dispatcher
	Tokens     auth.TokenValidator
	Metrics    *metrics.Metrics
}

// Handler upgrades authenticated requests and serves one connection per call.
type Handler struct {
	Deps
	upgrader websocket.Upgrader
	events   map[string]eventFunc
	logger   zerolog.Logger
}

func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	h := &Handler{
		Deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "realtime").Logger(),
	}
	h.events = h.routes()
	return h
}

// ServeHTTP authenticates the bearer token, upgrades, and blocks until the
// connection closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromRequest(r)
	if !ok || token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}
	claims, err := h.Tokens.ValidateAccessToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	c := ws.NewConnection(conn, claims.UserID, h.logger)
	replaced := h.Hub.Register(c)
	go c.WritePump()

	if !replaced {
		h.Presence.Online(ctx, claims.UserID)
	}

	c.ReadPump(func(msg ws.Message) error {
		return h.dispatch(ctx, c, msg)
	})

	h.disconnect(ctx, c)
}

// disconnect releases everything tied to the connection, unless a newer
// connection for the same user has already taken over.
func (h *Handler) disconnect(ctx context.Context, c *ws.Connection) {
	if !h.Hub.Unregister(c) {
		h.logger.Debug().Str("user_id", c.UserID.String()).Msg("replaced connection closed")
		return
	}

	roomID, left := h.Rooms.LeaveUser(ctx, c.UserID)
	abandoned := h.Sessions.AbandonConnection(ctx, c.ID)
	h.Presence.Offline(ctx, c.UserID)

	h.logger.Info().
		Str("user_id", c.UserID.String()).
		Str("connection_id", c.ID).
		Str("room_id", roomID).
		Bool("left_room", left).
		Int("sessions_abandoned", abandoned).
		Msg("connection closed")
}
