package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xinyang20/SDDB/internal/client"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

type conn struct {
	ws   *websocket.Conn
	b    *Broadcaster
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// enqueue drops the frame and reports false when the client is too slow or
// already removed.
func (c *conn) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Broadcaster fans frames out to every connected dashboard.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*conn]bool
	source  Source
}

// NewBroadcaster creates a broadcaster whose snapshots come from source.
func NewBroadcaster(source Source) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*conn]bool),
		source:  source,
	}
}

// AddClient registers ws, acknowledges it and pushes an initial snapshot.
func (b *Broadcaster) AddClient(ws *websocket.Conn) *conn {
	c := &conn{ws: ws, b: b, send: make(chan []byte, sendBuffer)}
	go c.writePump()

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	b.SendTo(c, client.MsgConnected, client.ConnectedPayload{Status: client.AckSuccess, Message: "连接成功"})
	b.SendSnapshot(c)
	return c
}

// RemoveClient unregisters c and closes its send queue. Safe to call twice.
func (b *Broadcaster) RemoveClient(c *conn) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
	c.close()
}

// SendTo queues one frame for c.
func (b *Broadcaster) SendTo(c *conn, t client.MessageType, payload interface{}) {
	data, err := json.Marshal(Message{Type: t, Payload: payload})
	if err != nil {
		log.Printf("marshal %s: %v", t, err)
		return
	}
	if !c.enqueue(data) {
		log.Printf("ws client gone or too slow, dropping %s", t)
	}
}

// SendSnapshot queues the current snapshot for c.
func (b *Broadcaster) SendSnapshot(c *conn) {
	if b.source == nil {
		return
	}
	b.SendTo(c, client.MsgDashboardUpdate, b.source.Snapshot())
}

// Broadcast sends one frame to every client. Clients that cannot keep up
// are disconnected.
func (b *Broadcaster) Broadcast(t client.MessageType, payload interface{}) {
	data, err := json.Marshal(Message{Type: t, Payload: payload})
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*conn, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// BroadcastSnapshot pushes the current snapshot to everyone.
func (b *Broadcaster) BroadcastSnapshot() {
	if b.source == nil {
		return
	}
	b.Broadcast(client.MsgDashboardUpdate, b.source.Snapshot())
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[*conn]bool)
	b.mu.Unlock()
	for c := range clients {
		c.close()
	}
}
