package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	// The server answers every heartbeat ping, so three missed intervals
	// means the link is dead.
	readTimeout = 90 * time.Second
)

// ErrNotConnected is returned by Send when no connection is open.
var ErrNotConnected = errors.New("not connected")

// WSClient manages the WebSocket connection to the dashboard server.
// Reconnection with backoff lives here; callers only see ConnectMsg and
// DisconnectMsg.
type WSClient struct {
	url    string
	token  string
	dialer *websocket.Dialer

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes
	conn    *websocket.Conn
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url, token string) *WSClient {
	return &WSClient{url: url, token: token, dialer: websocket.DefaultDialer}
}

// Listen returns a Bubble Tea command that dials until a connection is
// established or ctx is cancelled. Failed dials back off exponentially.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			if ctx.Err() != nil {
				return nil
			}

			header := http.Header{}
			if c.token != "" {
				header.Set("Authorization", "Bearer "+c.token)
			}
			conn, _, err := c.dialer.DialContext(ctx, c.url, header)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.conn != nil {
				c.conn.Close()
			}
			c.conn = conn
			c.mu.Unlock()

			return ConnectMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that blocks until the next decodable
// message arrives or the connection drops. It is re-issued after every
// message so handlers run one at a time.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectMsg{Err: ErrNotConnected}
		}

		for {
			conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				if ctx.Err() != nil {
					return nil
				}
				return DisconnectMsg{Err: err}
			}

			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("ws: dropping undecodable frame: %v", err)
				continue
			}
			if ev := Decode(msg); ev != nil {
				return ev
			}
		}
	}
}

// Send writes a payload-less message of the given type.
func (c *WSClient) Send(t MessageType) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(WSMessage{Type: t})
}

// Close drops the current connection, if any.
func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return conn.Close()
}

// Decode turns an envelope into an Event. Unknown types and payloads that
// cannot be decoded yield nil.
func Decode(msg WSMessage) Event {
	payload := msg.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	switch msg.Type {
	case MsgConnected:
		var p ConnectedPayload
		if json.Unmarshal(payload, &p) == nil {
			return ConnectedAckMsg{Payload: p}
		}
	case MsgDashboardUpdate:
		var s DashboardSnapshot
		if json.Unmarshal(payload, &s) == nil {
			return DashboardUpdateMsg{Snapshot: s}
		}
	case MsgError:
		var p ErrorPayload
		if json.Unmarshal(payload, &p) == nil {
			return ErrorMsg{Payload: p}
		}
	case MsgNewAlert:
		if a, ok := decodeAlert(payload); ok {
			return NewAlertMsg{Alert: a}
		}
	case MsgPong:
		var p PongPayload
		if json.Unmarshal(payload, &p) == nil {
			return PongMsg{Payload: p}
		}
	case MsgTaskUpdate:
		var p TaskUpdatePayload
		if json.Unmarshal(payload, &p) == nil {
			return TaskUpdateMsg{Payload: p}
		}
	}
	return nil
}

// decodeAlert falls back to the three required fields when the optional
// extras have unexpected types.
func decodeAlert(payload json.RawMessage) (Alert, bool) {
	var a Alert
	if err := json.Unmarshal(payload, &a); err == nil {
		return a, true
	}
	obj, ok := object(payload)
	if !ok {
		return Alert{}, false
	}
	return Alert{
		AlertID: number(obj["alert_id"]),
		Type:    text(obj["type"]),
		Level:   Level(text(obj["level"])),
		Message: text(obj["message"]),
	}, true
}
