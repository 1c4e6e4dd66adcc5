package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/services"
)

// Message types sent besides view frames
const (
	MessageTypeConnected = "connected"
	MessageTypeAck       = "ack"
	MessageTypeError     = "error"
	MessageTypeSignedOut = "signed_out"
)

// Notification is a control message sent over WebSocket
type Notification struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one live-view connection
type Client struct {
	UID   string
	Email string
	Conn  *websocket.Conn
	View  *services.LiveView

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// WriteJSON serializes writes from the frame pump and the command loop
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Close drops the connection; the read loop then unregisters the client
func (c *Client) Close() {
	c.closeOnce.Do(func() { c.Conn.Close() })
}

// Hub tracks the open live views of every signed-in user
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance accepting upgrades from allowedOrigins
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader:   newUpgrader(allowedOrigins),
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UID] == nil {
				h.clients[client.UID] = make(map[*Client]bool)
			}
			h.clients[client.UID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.UID]; ok {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.UID)
				}
			}
			h.mu.Unlock()
			client.Close()
		}
	}
}

// Count returns how many live views a user has open
func (h *Hub) Count(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[uid])
}

func (h *Hub) snapshot(match func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, set := range h.clients {
		for c := range set {
			if match(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// TeardownUser closes every live view of a user, as on sign-out
func (h *Hub) TeardownUser(uid string) {
	for _, c := range h.snapshot(func(c *Client) bool { return c.UID == uid }) {
		_ = c.WriteJSON(Notification{Type: MessageTypeSignedOut, Message: "Signed out"})
		c.Close()
	}
}

// NotifyRoleChange hands an edited role to the user's open views
func (h *Hub) NotifyRoleChange(email string, role models.Role) {
	email = models.NormalizeEmail(email)
	for _, c := range h.snapshot(func(c *Client) bool { return c.Email == email }) {
		if c.View != nil {
			c.View.SetRole(role)
		}
	}
}
