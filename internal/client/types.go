// Package client provides the WebSocket transport and HTTP client for the
// decoction dashboard server. Types mirror the server's push protocol.
package client

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

// Inbound (server → client).
const (
	MsgConnected       MessageType = "connected"
	MsgDashboardUpdate MessageType = "dashboard_update"
	MsgError           MessageType = "error"
	MsgNewAlert        MessageType = "new_alert"
	MsgPong            MessageType = "pong"
	MsgTaskUpdate      MessageType = "task_update"
)

// Outbound (client → server).
const (
	MsgRequestUpdate MessageType = "request_update"
	MsgPing          MessageType = "ping"
	MsgAuth          MessageType = "auth"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack statuses carried by the connected payload.
const (
	AckSuccess = "success"
	AckError   = "error"
)

// ConnectedPayload is the server's acknowledgement after a connection opens.
type ConnectedPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorPayload is a server-reported failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

// PongPayload answers a heartbeat ping.
type PongPayload struct {
	Timestamp Timestamp `json:"timestamp"`
}

// TaskUpdatePayload is broadcast when a decoction task changes status.
type TaskUpdatePayload struct {
	TaskID    int       `json:"task_id"`
	Status    string    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
}

// Level is an alert severity. Anything other than LevelHigh renders as normal.
type Level string

const (
	LevelNormal Level = "normal"
	LevelHigh   Level = "high"
)

// IsHigh reports whether the level calls for an audible cue.
func (l Level) IsHigh() bool { return l == LevelHigh }

// Alert is a new_alert payload.
type Alert struct {
	AlertID   int        `json:"alert_id,omitempty"`
	Type      string     `json:"type"`
	Level     Level      `json:"level"`
	Message   string     `json:"message"`
	TaskID    *int       `json:"task_id,omitempty"`
	WorkerID  *int       `json:"worker_id,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// UnreadAlert is an element of the /admin/alerts/unread response.
type UnreadAlert struct {
	AlertID   int       `json:"alert_id"`
	Type      string    `json:"type"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	TaskID    *int      `json:"task_id,omitempty"`
	WorkerID  *int      `json:"worker_id,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// UnreadAlerts is the /admin/alerts/unread response.
type UnreadAlerts struct {
	Success bool          `json:"success"`
	Alerts  []UnreadAlert `json:"alerts"`
	Count   int           `json:"count"`
}

// ActionResult is returned by the mark_read and resolve endpoints.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Timestamp is an instant as sent by the server. The server emits naive ISO
// strings (local wall clock, no offset); RFC 3339 strings and epoch
// milliseconds are accepted too. An unparseable value decodes as the zero
// time instead of failing the enclosing payload.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses s in any of the accepted forms.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		if parsed, ok := ParseTimestamp(x); ok {
			t.Time = parsed
		}
	case float64:
		t.Time = time.UnixMilli(int64(x))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}
