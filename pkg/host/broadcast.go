package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/waypoint/pkg/router"
)

// MessageType identifies a host message.
type MessageType string

const (
	MessageTitle       MessageType = "title"
	MessageDescription MessageType = "description"
	MessageScroll      MessageType = "scroll"
	MessageMount       MessageType = "mount"
)

// Message is sent to browsers as JSON.
type Message struct {
	Type        MessageType `json:"type"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Route       string      `json:"route,omitempty"`
}

// Broadcast is a host that forwards side effects to WebSocket clients.
// New clients receive the latest title, description, mount and scroll.
// Clients report their scroll offset with a scroll message; the latest
// report is what ScrollOffset returns, so back and forward restore it.
type Broadcast struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex // gorilla connections allow one writer at a time
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *slog.Logger

	last   map[MessageType]Message
	offset router.Position
}

var _ router.ScrollReader = (*Broadcast)(nil)

// NewBroadcast creates a broadcast host.
func NewBroadcast(logger *slog.Logger) *Broadcast {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcast{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Preview only
			},
		},
		logger: logger.With("component", "host"),
		last:   make(map[MessageType]Message),
	}
}

// HandleWebSocket upgrades the request and keeps the client until it
// disconnects.
func (b *Broadcast) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := b.upgrader.Upgrade(w, req, nil)
	if err != nil {
		b.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	b.writeMu.Lock()
	b.mu.Lock()
	b.clients[conn] = true
	replay := b.snapshot()
	b.mu.Unlock()

	for _, msg := range replay {
		if err := writeJSON(conn, msg); err != nil {
			b.writeMu.Unlock()
			b.drop(conn)
			return
		}
	}
	b.writeMu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		b.receive(data)
	}
	b.drop(conn)
}

// SetTitle implements router.Host.
func (b *Broadcast) SetTitle(title string) {
	b.send(Message{Type: MessageTitle, Title: title})
}

// SetDescription implements router.DescriptionSetter.
func (b *Broadcast) SetDescription(description string) {
	b.send(Message{Type: MessageDescription, Description: description})
}

// SetScrollOffset implements router.Host.
func (b *Broadcast) SetScrollOffset(x, y int) {
	b.mu.Lock()
	b.offset = router.Position{X: x, Y: y}
	b.mu.Unlock()
	b.send(Message{Type: MessageScroll, X: x, Y: y})
}

// ScrollOffset implements router.ScrollReader with the offset last set or
// reported by a client.
func (b *Broadcast) ScrollOffset() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offset.X, b.offset.Y
}

// receive handles a client message. Only scroll reports are accepted.
func (b *Broadcast) receive(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Debug("ignoring malformed client message", "error", err)
		return
	}
	if msg.Type != MessageScroll {
		return
	}
	b.mu.Lock()
	b.offset = router.Position{X: msg.X, Y: msg.Y}
	b.last[MessageScroll] = msg
	b.mu.Unlock()
}

// Mount implements router.Renderer by announcing the mounted route.
func (b *Broadcast) Mount(_ context.Context, route *router.Descriptor, _ router.Module) error {
	b.send(Message{Type: MessageMount, Route: route.Name})
	return nil
}

// ClientCount returns the number of connected clients.
func (b *Broadcast) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcast) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
}

func (b *Broadcast) send(msg Message) {
	b.mu.Lock()
	b.last[msg.Type] = msg
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.Unlock()

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	for _, client := range clients {
		if err := writeJSON(client, msg); err != nil {
			b.drop(client)
		}
	}
}

// snapshot must be called with mu held.
func (b *Broadcast) snapshot() []Message {
	var out []Message
	for _, t := range []MessageType{MessageMount, MessageTitle, MessageDescription, MessageScroll} {
		if msg, ok := b.last[t]; ok {
			out = append(out, msg)
		}
	}
	return out
}

func (b *Broadcast) drop(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

func writeJSON(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
