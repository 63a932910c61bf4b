package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Envelope is the frame pushed to update subscribers.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type outbound struct {
	sessionID string
	data      []byte
}

// Hub fans events out to /ws/updates subscribers. A client bound to a session
// only receives that session's events plus unscoped ones.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger

	mu sync.RWMutex
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan outbound, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run owns client registration until ctx ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.sessionID != "" && msg.sessionID != "" && client.sessionID != msg.sessionID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					h.log.Warn("Dropping slow websocket client", zap.String("session_id", client.sessionID))
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast implements ports.Broadcaster. It never blocks; events are dropped
// when the hub is saturated.
func (h *Hub) Broadcast(event string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Failed to encode websocket event", zap.String("event", event), zap.Error(err))
		return
	}
	env := Envelope{Type: event, SessionID: sessionOf(raw), Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error("Failed to encode websocket envelope", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- outbound{sessionID: env.SessionID, data: data}:
	default:
		h.log.Warn("Websocket hub saturated, event dropped", zap.String("event", event))
	}
}

func sessionOf(raw json.RawMessage) string {
	var probe struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.SessionID
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AddClient registers conn and blocks until it disconnects, which keeps the
// fiber handler alive for the lifetime of the connection.
func (h *Hub) AddClient(conn *websocket.Conn, sessionID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), sessionID: sessionID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()
	for {
		// Subscribers only receive; reads keep control frames flowing.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
