package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHub_DeliversOnlyToRecipient(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	aliceConn := dial(t, hub, alice)
	bobConn := dial(t, hub, bob)

	require.NoError(t, hub.BroadcastToUser(context.Background(), alice, "offer_created", map[string]string{"title": "Поставка"}))

	_ = aliceConn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "offer_created", env.Type)
	assert.Equal(t, "Поставка", env.Data["title"])

	_ = bobConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	conn := dial(t, hub, user)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// Буфер рассылки ещё может принять сообщение, затем хаб сообщает об остановке.
	var err error
	for i := 0; i < cap(hub.broadcast)+1 && err == nil; i++ {
		err = hub.BroadcastToUser(context.Background(), uuid.New(), "noop", nil)
	}
	assert.Error(t, err)
}
