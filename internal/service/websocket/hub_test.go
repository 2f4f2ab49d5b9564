package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partcounter/internal/logger"
)

func newTestHub(t *testing.T, queueSize int) *HubService {
	t.Helper()
	l := logger.New(t.TempDir())
	t.Cleanup(func() { l.Close() })
	return NewHubService(queueSize, l)
}

func TestHub_BroadcastReachesViewer(t *testing.T) {
	hub := newTestHub(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.True(t, hub.BroadcastMessage(Message{Type: MessageCounts, Payload: map[string]int{"line1": 2}}))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageCounts, msg.Type)
	assert.Equal(t, 2, msg.Payload["line1"])
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	hub := newTestHub(t, 1)

	assert.True(t, hub.Broadcast([]byte("one")))
	assert.False(t, hub.Broadcast([]byte("two")))
}

func TestHub_RegistrationAfterShutdownDoesNotBlock(t *testing.T) {
	hub := newTestHub(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	returned := make(chan struct{})
	go func() {
		hub.Unregister(nil)
		hub.Register(nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked after the hub stopped")
	}
	assert.Equal(t, 0, hub.GetClientCount())
}
