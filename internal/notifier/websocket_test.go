package notifier

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/model"
)

func readFrame(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg wsMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_HistoryThenLive(t *testing.T) {
	old := newEvent(60, 2)
	hub := NewHub(func(n int) []model.MovementEvent {
		assert.Equal(t, historyLength, n)
		return []model.MovementEvent{*old}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, "history", first.Type)
	assert.Equal(t, old.ID, first.Event.ID)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	live := newEvent(120, -1.2)
	require.NoError(t, hub.Emit(context.Background(), live))

	second := readFrame(t, conn)
	assert.Equal(t, "movement", second.Type)
	assert.Equal(t, live.ID, second.Event.ID)
	assert.Equal(t, -1.2, second.Event.Percent)
	assert.Equal(t, int64(120), second.Event.Segment.Key())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "websocket", hub.Name())
}
