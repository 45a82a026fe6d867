package helperd

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const MsgLog MessageType = "log"

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq"`
	Payload interface{} `json:"payload"`
}

// LogPayload is one daemon log line.
type LogPayload struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) close() {
	close(c.send)
}

// Broadcaster fans daemon log lines out to connected consoles. Slow
// clients drop messages instead of blocking the publisher.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	seq     uint64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*wsClient]bool)}
}

// AddClient registers a connection and returns its handle.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *wsClient {
	c := newWSClient(conn)
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

// RemoveClient unregisters a connection and closes its send channel.
func (b *Broadcaster) RemoveClient(c *wsClient) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Publish sends one log line to every connected client.
func (b *Broadcaster) Publish(level, message string) {
	b.mu.Lock()
	b.seq++
	msg := WSMessage{
		Type: MsgLog,
		Seq:  b.seq,
		Payload: LogPayload{
			Time:    time.Now(),
			Level:   level,
			Message: message,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		b.mu.Unlock()
		return
	}
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the line.
		}
	}
	b.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
