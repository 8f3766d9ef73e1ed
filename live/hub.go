package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message is the frame pushed to dashboards.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// AccountRoom is the room every connection of an account joins.
func AccountRoom(id uuid.UUID) string { return "account:" + id.String() }

// RoleRoom is the room shared by all connections of one role.
func RoleRoom(role models.Role) string { return "role:" + string(role) }

// RoomsFor lists the rooms a signed-in account listens on.
func RoomsFor(account models.Account) []string {
	return []string{AccountRoom(account.ID), RoleRoom(account.Role)}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	rooms  []string
	closed bool
	mu     sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, rooms []string) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), rooms: rooms}
}

// Hub fans change events out to rooms of websocket clients.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Register adds the client to its rooms. After Run has returned the client
// is closed immediately.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			for _, room := range client.rooms {
				if _, ok := h.rooms[room]; !ok {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.Any("rooms", client.rooms))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.rooms {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove drops the client from all its rooms; callers hold h.mu.
func (h *Hub) remove(client *Client) {
	for _, room := range client.rooms {
		clients, ok := h.rooms[room]
		if !ok {
			continue
		}
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	client.close()
}

// ClientCount is the number of distinct connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]struct{})
	for _, clients := range h.rooms {
		for c := range clients {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// Notify sends the event once to every client in any of the audience's
// rooms. Slow clients whose buffer is full miss the message.
func (h *Hub) Notify(audience models.Audience, event models.ChangeEvent) {
	msg, err := json.Marshal(Message{Type: event.Type, Payload: event})
	if err != nil {
		h.logger.Error("failed to marshal change event", slog.Any("error", err))
		return
	}

	rooms := make([]string, 0, len(audience.AccountIDs)+len(audience.Roles))
	for _, id := range audience.AccountIDs {
		rooms = append(rooms, AccountRoom(id))
	}
	for _, role := range audience.Roles {
		rooms = append(rooms, RoleRoom(role))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := make(map[*Client]struct{})
	for _, room := range rooms {
		for client := range h.rooms[room] {
			if _, ok := delivered[client]; ok {
				continue
			}
			delivered[client] = struct{}{}
			if !client.trySend(msg) {
				h.logger.Warn("websocket client buffer full, dropping message", slog.String("room", room))
			}
		}
	}
}

func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump only drains control frames; clients never send data.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Каждое событие отдельным кадром: клиент парсит JSON по кадру.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
