package client

// Event is an inbound message from the transport: either a lifecycle change
// synthesized locally (connect, disconnect) or a decoded server message.
// The set is closed; only this package declares implementations.
type Event interface {
	event()
}

// ConnectMsg is sent when the WebSocket connects.
type ConnectMsg struct{}

// DisconnectMsg is sent when the connection drops.
type DisconnectMsg struct{ Err error }

// ConnectedAckMsg carries the server's connected acknowledgement.
type ConnectedAckMsg struct{ Payload ConnectedPayload }

// DashboardUpdateMsg delivers a partial dashboard snapshot.
type DashboardUpdateMsg struct{ Snapshot DashboardSnapshot }

// ErrorMsg wraps a server-side error.
type ErrorMsg struct{ Payload ErrorPayload }

// NewAlertMsg delivers one alert.
type NewAlertMsg struct{ Alert Alert }

// PongMsg answers a heartbeat ping.
type PongMsg struct{ Payload PongPayload }

// TaskUpdateMsg reports a task status change.
type TaskUpdateMsg struct{ Payload TaskUpdatePayload }

func (ConnectMsg) event()         {}
func (DisconnectMsg) event()      {}
func (ConnectedAckMsg) event()    {}
func (DashboardUpdateMsg) event() {}
func (ErrorMsg) event()           {}
func (NewAlertMsg) event()        {}
func (PongMsg) event()            {}
func (TaskUpdateMsg) event()      {}
