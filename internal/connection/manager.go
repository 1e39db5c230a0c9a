// Package connection owns the dashboard's single push connection: its
// status, heartbeat and the routing of inbound events.
package connection

import (
	"context"
	"errors"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/dispatch"
)

// DefaultHeartbeat is the ping interval while connected.
const DefaultHeartbeat = 30 * time.Second

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("connection already started")

// Status is the externally visible connection state.
type Status int

const (
	Disconnected Status = iota
	Connected
)

func (s Status) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Transport is the push channel. Reconnection and backoff are its concern.
type Transport interface {
	// Listen connects and reports client.ConnectMsg.
	Listen(ctx context.Context) tea.Cmd
	// ReadLoop reports the next inbound event or client.DisconnectMsg.
	ReadLoop(ctx context.Context) tea.Cmd
	Send(t client.MessageType) error
	Close() error
}

// Updater applies snapshots.
type Updater interface {
	Apply(s client.DashboardSnapshot) dispatch.Applied
}

// Alerter accepts alerts for the notification queue.
type Alerter interface {
	Enqueue(a client.Alert) tea.Cmd
}

// Observer receives everything that is not widget or alert state: one-shot
// notices, status changes and informational events.
type Observer interface {
	Notice(message string)
	StatusChanged(s Status)
	Logf(kind, format string, args ...any)
}

// HeartbeatMsg is delivered on every heartbeat tick.
type HeartbeatMsg struct{ At time.Time }

// AppliedMsg reports which widgets a dashboard update touched.
type AppliedMsg struct{ Applied dispatch.Applied }

// Manager tracks connection status and routes transport events.
type Manager struct {
	transport Transport
	updates   Updater
	alerts    Alerter
	observer  Observer
	interval  time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	status  Status

	pings    int
	lastPong time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeartbeat overrides DefaultHeartbeat.
func WithHeartbeat(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewManager wires a transport to its consumers. Nothing is opened until
// Start.
func NewManager(t Transport, u Updater, a Alerter, o Observer, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		updates:   u,
		alerts:    a,
		observer:  o,
		interval:  DefaultHeartbeat,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens the transport and starts the heartbeat. It may be called once
// per Manager.
func (m *Manager) Start() (tea.Cmd, error) {
	if m.started {
		return nil, ErrAlreadyStarted
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return tea.Batch(m.transport.Listen(m.ctx), m.tick()), nil
}

// Stop cancels pending transport commands and closes the connection.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if err := m.transport.Close(); err != nil {
		log.Printf("closing transport: %v", err)
	}
}

// Status returns the current connection status.
func (m *Manager) Status() Status { return m.status }

// Pings returns the number of heartbeat pings sent.
func (m *Manager) Pings() int { return m.pings }

// LastPong returns when the server last answered a ping.
func (m *Manager) LastPong() time.Time { return m.lastPong }

// RequestUpdate asks the server for a fresh snapshot.
func (m *Manager) RequestUpdate() error {
	return m.transport.Send(client.MsgRequestUpdate)
}

// Handle reacts to one inbound event and returns the follow-up command.
func (m *Manager) Handle(ev client.Event) tea.Cmd {
	switch ev := ev.(type) {
	case client.ConnectMsg:
		m.setStatus(Connected)
		m.observer.Logf("ws", "connected")
		if err := m.RequestUpdate(); err != nil {
			log.Printf("request_update: %v", err)
		}
		return m.read()

	case client.DisconnectMsg:
		m.setStatus(Disconnected)
		if ev.Err != nil {
			m.observer.Logf("ws", "disconnected: %v", ev.Err)
		} else {
			m.observer.Logf("ws", "disconnected")
		}
		return m.transport.Listen(m.ctx)

	case client.ConnectedAckMsg:
		if ev.Payload.Status == client.AckError {
			m.observer.Notice(ev.Payload.Message)
		} else {
			m.observer.Logf("ws", "server: %s", ev.Payload.Message)
		}
		return m.read()

	case client.ErrorMsg:
		m.observer.Notice("数据获取失败: " + ev.Payload.Message)
		m.observer.Logf("err", "%s", ev.Payload.Message)
		return m.read()

	case client.DashboardUpdateMsg:
		applied := m.updates.Apply(ev.Snapshot)
		return tea.Batch(m.read(), func() tea.Msg { return AppliedMsg{Applied: applied} })

	case client.NewAlertMsg:
		m.observer.Logf("alrt", "[%s] %s: %s", ev.Alert.Level, ev.Alert.Type, ev.Alert.Message)
		return tea.Batch(m.read(), m.alerts.Enqueue(ev.Alert))

	case client.PongMsg:
		// Receipt time, not the server's clock.
		m.lastPong = time.Now()
		return m.read()

	case client.TaskUpdateMsg:
		m.observer.Logf("task", "task #%d → %s", ev.Payload.TaskID, ev.Payload.Status)
		return m.read()
	}
	return nil
}

// Heartbeat handles a tick: it pings only while connected and always
// schedules the next tick.
func (m *Manager) Heartbeat() tea.Cmd {
	if m.status == Connected {
		if err := m.transport.Send(client.MsgPing); err != nil {
			log.Printf("ping: %v", err)
		} else {
			m.pings++
		}
	}
	return m.tick()
}

func (m *Manager) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return HeartbeatMsg{At: t}
	})
}

func (m *Manager) read() tea.Cmd {
	return m.transport.ReadLoop(m.ctx)
}

func (m *Manager) setStatus(s Status) {
	m.status = s
	m.observer.StatusChanged(s)
}
