package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is the envelope pushed to websocket clients
type StreamMessage struct {
	Type    string                  `json:"type"`
	Payload *contracts.ScreenResult `json:"payload"`
}

// sendBuffer runs queued per client before new runs are dropped for it
const sendBuffer = 8

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes completed ranking runs to websocket subscribers.
// 클라이언트마다 writer goroutine 하나; 느린 클라이언트는 다른 클라이언트를 막지 않는다.
// ⭐ SSOT: 실시간 순위 푸시는 여기서만
type Hub struct {
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	last    []byte
	logger  *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*streamClient]struct{}),
		logger:  log.WithField("handler", "stream"),
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the connection and streams runs until the client leaves.
// 접속 직후 마지막 run 을 한 번 보낸다.
// GET /ws/rankings
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("WebSocket client connected")

	go h.writeLoop(c)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		close(c.send)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.WithField("clients", remaining).Debug("WebSocket client disconnected")
	}()

	// 클라이언트 메시지는 무시하고 연결 종료만 감지
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

// Broadcast queues a run for every connected client without waiting on any of them
func (h *Hub) Broadcast(result *contracts.ScreenResult) {
	data, err := json.Marshal(StreamMessage{Type: "ranking_run", Payload: result})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal ranking run")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = data
	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.WithField("clients", dropped).Warn("Slow WebSocket clients skipped a ranking run")
	}
}

// writeLoop is the only writer of c.conn; it ends when ServeWS closes c.send
func (h *Hub) writeLoop(c *streamClient) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).Warn("Failed to send ranking run to client")
			// 읽기 루프를 깨워 정리하게 한다
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
