package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/model"
)

const (
	writeWait     = 10 * time.Second
	clientBuffer  = 256
	historyLength = 50
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is the JSON frame pushed to feed clients.
type wsMessage struct {
	Type  string               `json:"type"` // "history" or "movement"
	Event *model.MovementEvent `json:"event"`
}

// HistoryFunc returns the events replayed to a newly connected client.
type HistoryFunc func(n int) []model.MovementEvent

// Hub fans movement events out to websocket clients.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	history    HistoryFunc
	done       chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub; history may be nil.
func NewHub(history HistoryFunc) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 1024),
		history:    history,
		done:       make(chan struct{}),
		logger:     log.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug().Int("clients", h.ClientCount()).Msg("client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client, drop this frame
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Emit broadcasts a movement to every connected client.
func (h *Hub) Emit(_ context.Context, evt *model.MovementEvent) error {
	data, err := json.Marshal(wsMessage{Type: "movement", Event: evt})
	if err != nil {
		return fmt.Errorf("marshal movement: %w", err)
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		return fmt.Errorf("broadcast channel full, dropping movement %s", evt.ID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams movements to the client,
// starting with the recent history.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}

	if h.history != nil {
		for _, evt := range h.history(historyLength) {
			evt := evt
			data, err := json.Marshal(wsMessage{Type: "history", Event: &evt})
			if err != nil {
				continue
			}
			c.send <- data
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
