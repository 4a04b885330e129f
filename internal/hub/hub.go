// Package hub fans clipboard updates out to connected websocket viewers.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event types pushed to viewers of a clipboard.
const (
	EventItemsUpdated    = "items_updated"
	EventPasswordUpdated = "password_updated"
	EventRemoved         = "removed"
)

// Event is one update frame pushed to every viewer of a clipboard.
type Event struct {
	Type        string   `json:"type"`
	ClipboardID string   `json:"clipboard_id"`
	Items       []string `json:"items,omitempty"`
}

// Connection represents a single websocket viewer.
type Connection struct {
	ID          string
	ClipboardID string
	Conn        *websocket.Conn
	Send        chan []byte
	mu          sync.Mutex
}

// Hub manages all websocket connections, indexed by clipboard id.
type Hub struct {
	connections map[string]*Connection
	clipboards  map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *clipboardMessage

	log zerolog.Logger
	mu  sync.RWMutex
}

type clipboardMessage struct {
	clipboardID string
	data        []byte
}

// New creates a new Hub.
func New(log zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		clipboards:  make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *clipboardMessage, 256),
		log:         log,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.clipboards[conn.ClipboardID] == nil {
				h.clipboards[conn.ClipboardID] = make(map[string]bool)
			}
			h.clipboards[conn.ClipboardID][conn.ID] = true
			h.mu.Unlock()
			h.log.Debug().Str("conn", conn.ID).Str("clipboard", conn.ClipboardID).Msg("viewer attached")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if h.clipboards[conn.ClipboardID] != nil {
					delete(h.clipboards[conn.ClipboardID], conn.ID)
					if len(h.clipboards[conn.ClipboardID]) == 0 {
						delete(h.clipboards, conn.ClipboardID)
					}
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			h.log.Debug().Str("conn", conn.ID).Msg("viewer detached")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.clipboards[msg.clipboardID] {
				conn, exists := h.connections[connID]
				if !exists {
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					// Buffer full, drop the viewer.
					h.log.Warn().Str("conn", connID).Msg("viewer buffer full, closing")
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a connection bound to a clipboard. The caller must
// Register it.
func (h *Hub) NewConnection(ws *websocket.Conn, clipboardID string) *Connection {
	return &Connection{
		ID:          uuid.New().String(),
		ClipboardID: clipboardID,
		Conn:        ws,
		Send:        make(chan []byte, 256),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast sends an event to every viewer of a clipboard.
func (h *Hub) Broadcast(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.broadcast <- &clipboardMessage{clipboardID: ev.ClipboardID, data: data}
	return nil
}

// ViewerCount returns the number of viewers attached to a clipboard.
func (h *Hub) ViewerCount(clipboardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clipboards[clipboardID])
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// Close closes the underlying websocket connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
