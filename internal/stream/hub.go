// Package stream pushes pricing results to WebSocket subscribers. Every
// successful price, Greeks, or implied-vol computation served by the API is
// broadcast to all connected clients.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Update is the message broadcast after each computation
type Update struct {
	Type      string      `json:"type"`
	Method    string      `json:"method,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts updates to them
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	recorder   *metrics.Recorder
	nextID     atomic.Uint64
	log        *logger.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// NewHub creates a broadcast hub
func NewHub(recorder *metrics.Recorder) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		recorder:   recorder,
		log:        logger.GetLogger("stream.hub"),
	}
}

// Run services client registration and broadcasting until ctx is canceled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Starting pricing stream hub")

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Pricing stream hub shutting down")
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.recorder.SetStreamClients(len(h.clients))
			h.log.Infof("Client %s connected", c.id)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.recorder.SetStreamClients(len(h.clients))
				h.log.Infof("Client %s disconnected", c.id)
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer; drop it rather than block the hub
					delete(h.clients, c)
					close(c.send)
					h.recorder.SetStreamClients(len(h.clients))
				}
			}
		}
	}
}

// Publish broadcasts an update to all connected clients
func (h *Hub) Publish(updateType, method string, payload interface{}) {
	msg, err := json.Marshal(Update{
		Type:      updateType,
		Method:    method,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.log.Errorf("Failed to marshal stream update: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("Stream broadcast buffer full, dropping update")
	}
}

// HandleWebSocket upgrades the connection and attaches it to the hub
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		id:   fmt.Sprintf("client-%d", h.nextID.Add(1)),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection; inbound messages are ignored but reading
// is required to process control frames and detect closure
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Errorf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps broadcast messages to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
