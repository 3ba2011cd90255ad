package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/logger"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg StreamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(&contracts.ScreenResult{RunID: "run-1", Method: contracts.MethodSum})

	msg := readMessage(t, conn)
	assert.Equal(t, "ranking_run", msg.Type)
	require.NotNil(t, msg.Payload)
	assert.Equal(t, "run-1", msg.Payload.RunID)
}

func TestHub_SendsLastRunOnConnect(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	hub.Broadcast(&contracts.ScreenResult{RunID: "earlier"})

	conn := dialHub(t, srv)
	msg := readMessage(t, conn)
	assert.Equal(t, "earlier", msg.Payload.RunID)
}

func TestHub_Disconnect(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StalledClientDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// 아무도 읽지 않는 클라이언트 (버퍼 없음)
	stalled := &streamClient{send: make(chan []byte)}
	hub.mu.Lock()
	hub.clients[stalled] = struct{}{}
	hub.mu.Unlock()

	start := time.Now()
	for i := 0; i < sendBuffer*2; i++ {
		hub.Broadcast(&contracts.ScreenResult{RunID: "run"})
	}
	assert.Less(t, time.Since(start), time.Second, "broadcast must not wait on a stalled client")

	msg := readMessage(t, conn)
	assert.Equal(t, "run", msg.Payload.RunID)
}
