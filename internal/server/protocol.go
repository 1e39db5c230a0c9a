package server

import (
	"errors"

	"github.com/xinyang20/SDDB/internal/client"
)

// Message is an outbound frame. Payload is marshalled as-is.
type Message struct {
	Type    client.MessageType `json:"type"`
	Payload interface{}        `json:"payload"`
}

// ErrAlertNotFound is returned by an AlertStore for unknown ids.
var ErrAlertNotFound = errors.New("alert not found")

// Source produces the current dashboard snapshot.
type Source interface {
	Snapshot() client.DashboardSnapshot
}

// AlertStore backs the admin alert endpoints.
type AlertStore interface {
	Unread() []client.UnreadAlert
	MarkRead(id int) error
	Resolve(id int) error
}

const unauthorizedMessage = "无权限访问"
