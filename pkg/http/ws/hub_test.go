package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubLastConnectionWins(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	userID := uuid.New()

	first := NewConnection(nil, userID, zerolog.Nop())
	second := NewConnection(nil, userID, zerolog.Nop())

	assert.False(t, hub.Register(first))
	assert.True(t, hub.Register(second))
	assert.True(t, first.Closed())
	assert.Equal(t, 1, hub.Count())

	// the replaced connection going away must not evict the new one
	assert.False(t, hub.Unregister(first))
	assert.True(t, hub.IsOnline(userID))

	assert.True(t, hub.Unregister(second))
	assert.False(t, hub.IsOnline(userID))
	assert.True(t, second.Closed())
}

func TestHubEmit(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	userID := uuid.New()
	conn := NewConnection(nil, userID, zerolog.Nop())
	hub.Register(conn)

	require.NoError(t, hub.Emit(userID, TypeFriendStatusChanged, FriendStatusPayload{UserID: "u1", Status: "away"}))

	msg := <-conn.Outbox()
	assert.Equal(t, TypeFriendStatusChanged, msg.Type)
	var payload FriendStatusPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "away", payload.Status)

	assert.ErrorIs(t, hub.Emit(uuid.New(), TypePong, nil), ErrConnectionNotFound)
}

func TestConnectionSendAfterCloseAndOverflow(t *testing.T) {
	conn := NewConnection(nil, uuid.New(), zerolog.Nop())

	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, conn.Send(Message{Type: TypePong}))
	}
	assert.ErrorIs(t, conn.Send(Message{Type: TypePong}), ErrSendQueueFull)

	conn.Close()
	conn.Close()
	assert.ErrorIs(t, conn.Send(Message{Type: TypePong}), ErrConnectionClosed)
}

func TestBroadcastAll(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	a := NewConnection(nil, uuid.New(), zerolog.Nop())
	b := NewConnection(nil, uuid.New(), zerolog.Nop())
	hub.Register(a)
	hub.Register(b)

	require.NoError(t, hub.BroadcastAll(Message{Type: TypePing}))
	assert.Equal(t, TypePing, (<-a.Outbox()).Type)
	assert.Equal(t, TypePing, (<-b.Outbox()).Type)
}

func TestNewMessageWithoutPayload(t *testing.T) {
	msg, err := NewMessage(TypePong, nil)
	require.NoError(t, err)
	assert.Equal(t, TypePong, msg.Type)
	assert.Nil(t, msg.Payload)
}
