package connection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/dispatch"
)

type listenMsg struct{}
type readMsg struct{}

type fakeTransport struct {
	listens int
	reads   int
	sent    []client.MessageType
	sendErr error
	closed  int
}

func (f *fakeTransport) Listen(ctx context.Context) tea.Cmd {
	f.listens++
	return func() tea.Msg { return listenMsg{} }
}

func (f *fakeTransport) ReadLoop(ctx context.Context) tea.Cmd {
	f.reads++
	return func() tea.Msg { return readMsg{} }
}

func (f *fakeTransport) Send(t client.MessageType) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, t)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func (f *fakeTransport) count(t client.MessageType) int {
	n := 0
	for _, s := range f.sent {
		if s == t {
			n++
		}
	}
	return n
}

type fakeUpdater struct{ snapshots []client.DashboardSnapshot }

func (f *fakeUpdater) Apply(s client.DashboardSnapshot) dispatch.Applied {
	f.snapshots = append(f.snapshots, s)
	return dispatch.Applied{Metrics: s.Metrics != nil}
}

type fakeAlerter struct{ alerts []client.Alert }

func (f *fakeAlerter) Enqueue(a client.Alert) tea.Cmd {
	f.alerts = append(f.alerts, a)
	return nil
}

type fakeObserver struct {
	notices  []string
	statuses []Status
	logs     []string
}

func (f *fakeObserver) Notice(m string)        { f.notices = append(f.notices, m) }
func (f *fakeObserver) StatusChanged(s Status) { f.statuses = append(f.statuses, s) }
func (f *fakeObserver) Logf(kind, format string, args ...any) {
	f.logs = append(f.logs, kind+": "+fmt.Sprintf(format, args...))
}

type harness struct {
	m  *Manager
	tr *fakeTransport
	up *fakeUpdater
	al *fakeAlerter
	ob *fakeObserver
}

func newHarness() harness {
	h := harness{tr: &fakeTransport{}, up: &fakeUpdater{}, al: &fakeAlerter{}, ob: &fakeObserver{}}
	h.m = NewManager(h.tr, h.up, h.al, h.ob, WithHeartbeat(time.Millisecond))
	return h
}

func TestStartOnce(t *testing.T) {
	h := newHarness()
	cmd, err := h.m.Start()
	if err != nil || cmd == nil {
		t.Fatalf("Start() = %v, %v", cmd, err)
	}
	if h.tr.listens != 1 {
		t.Errorf("listens = %d, want 1", h.tr.listens)
	}
	if _, err := h.m.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}
	if h.tr.listens != 1 {
		t.Error("second Start must not open another connection")
	}
}

func TestInitialStatus(t *testing.T) {
	h := newHarness()
	if h.m.Status() != Disconnected {
		t.Errorf("initial status = %v", h.m.Status())
	}
}

func TestConnectRequestsUpdate(t *testing.T) {
	h := newHarness()
	h.m.Start()

	if cmd := h.m.Handle(client.ConnectMsg{}); cmd == nil {
		t.Fatal("connect should continue reading")
	}
	if h.m.Status() != Connected {
		t.Errorf("status = %v, want connected", h.m.Status())
	}
	if h.tr.count(client.MsgRequestUpdate) != 1 {
		t.Errorf("request_update sent %d times, want 1", h.tr.count(client.MsgRequestUpdate))
	}

	h.m.Handle(client.DisconnectMsg{Err: errors.New("eof")})
	h.m.Handle(client.ConnectMsg{})
	if h.tr.count(client.MsgRequestUpdate) != 2 {
		t.Errorf("each connect should send exactly one request_update, got %d", h.tr.count(client.MsgRequestUpdate))
	}
	want := []Status{Connected, Disconnected, Connected}
	if fmt.Sprint(h.ob.statuses) != fmt.Sprint(want) {
		t.Errorf("statuses = %v, want %v", h.ob.statuses, want)
	}
}

func TestDisconnectRelistens(t *testing.T) {
	h := newHarness()
	h.m.Start()
	h.m.Handle(client.ConnectMsg{})
	h.m.Handle(client.DashboardUpdateMsg{Snapshot: client.DashboardSnapshot{Metrics: &client.Metrics{PendingTasks: 1}}})

	cmd := h.m.Handle(client.DisconnectMsg{})
	if cmd == nil {
		t.Fatal("disconnect should hand control back to the transport")
	}
	if _, ok := cmd().(listenMsg); !ok {
		t.Error("disconnect should re-listen")
	}
	if h.m.Status() != Disconnected {
		t.Errorf("status = %v", h.m.Status())
	}
	if len(h.up.snapshots) != 1 {
		t.Error("disconnect must not touch widget data")
	}
	if len(h.ob.notices) != 0 {
		t.Error("disconnect is not a notice")
	}
}

func TestHeartbeatGatedOnStatus(t *testing.T) {
	h := newHarness()
	h.m.Start()

	for i := 0; i < 3; i++ {
		if cmd := h.m.Heartbeat(); cmd == nil {
			t.Fatal("heartbeat must always reschedule")
		}
	}
	if h.tr.count(client.MsgPing) != 0 {
		t.Errorf("pinged %d times while disconnected", h.tr.count(client.MsgPing))
	}

	h.m.Handle(client.ConnectMsg{})
	h.m.Heartbeat()
	h.m.Heartbeat()
	if h.tr.count(client.MsgPing) != 2 || h.m.Pings() != 2 {
		t.Errorf("pings = %d/%d, want 2", h.tr.count(client.MsgPing), h.m.Pings())
	}

	h.m.Handle(client.DisconnectMsg{})
	h.m.Heartbeat()
	if h.tr.count(client.MsgPing) != 2 {
		t.Error("no ping after disconnect")
	}
}

func TestHeartbeatTickMessage(t *testing.T) {
	h := newHarness()
	msg := h.m.Heartbeat()()
	if _, ok := msg.(HeartbeatMsg); !ok {
		t.Errorf("tick produced %#v", msg)
	}
}

func TestHeartbeatSendFailure(t *testing.T) {
	h := newHarness()
	h.m.Start()
	h.m.Handle(client.ConnectMsg{})
	h.tr.sendErr = client.ErrNotConnected
	if h.m.Heartbeat() == nil {
		t.Fatal("heartbeat must reschedule after a failed ping")
	}
	if h.m.Pings() != 0 {
		t.Errorf("failed ping counted: %d", h.m.Pings())
	}
}

func TestServerErrorsBecomeNotices(t *testing.T) {
	h := newHarness()
	h.m.Start()
	h.m.Handle(client.ConnectMsg{})

	h.m.Handle(client.ConnectedAckMsg{Payload: client.ConnectedPayload{Status: client.AckSuccess, Message: "连接成功"}})
	if len(h.ob.notices) != 0 {
		t.Fatalf("success ack raised notice %v", h.ob.notices)
	}

	h.m.Handle(client.ConnectedAckMsg{Payload: client.ConnectedPayload{Status: client.AckError, Message: "无权限访问"}})
	h.m.Handle(client.ErrorMsg{Payload: client.ErrorPayload{Message: "数据库不可用"}})

	want := []string{"无权限访问", "数据获取失败: 数据库不可用"}
	if len(h.ob.notices) != 2 || h.ob.notices[0] != want[0] || h.ob.notices[1] != want[1] {
		t.Errorf("notices = %v, want %v", h.ob.notices, want)
	}
	if h.m.Status() != Connected {
		t.Error("server errors must not change connection status")
	}
	if len(h.up.snapshots) != 0 {
		t.Error("server errors must not touch widgets")
	}
}

func TestForwarding(t *testing.T) {
	h := newHarness()
	h.m.Start()
	h.m.Handle(client.ConnectMsg{})

	snap := client.DashboardSnapshot{Metrics: &client.Metrics{PendingTasks: 5}}
	if h.m.Handle(client.DashboardUpdateMsg{Snapshot: snap}) == nil {
		t.Fatal("update should continue reading")
	}
	if len(h.up.snapshots) != 1 || h.up.snapshots[0].Metrics.PendingTasks != 5 {
		t.Errorf("updater got %+v", h.up.snapshots)
	}

	a := client.Alert{Level: client.LevelHigh, Type: "timeout", Message: "任务超时"}
	h.m.Handle(client.NewAlertMsg{Alert: a})
	h.m.Handle(client.NewAlertMsg{Alert: a})
	if len(h.al.alerts) != 2 {
		t.Errorf("alerter got %d alerts, want 2", len(h.al.alerts))
	}
}

func TestPongAndTaskUpdate(t *testing.T) {
	h := newHarness()
	h.m.Start()
	h.m.Handle(client.ConnectMsg{})

	before := time.Now()
	h.m.Handle(client.PongMsg{})
	if h.m.LastPong().Before(before) {
		t.Errorf("LastPong = %v, want >= %v", h.m.LastPong(), before)
	}

	logs := len(h.ob.logs)
	h.m.Handle(client.TaskUpdateMsg{Payload: client.TaskUpdatePayload{TaskID: 4, Status: "completed"}})
	if len(h.ob.logs) != logs+1 {
		t.Error("task_update should be logged")
	}
}

func TestStop(t *testing.T) {
	h := newHarness()
	h.m.Stop()
	h.m.Start()
	h.m.Stop()
	h.m.Stop()
	if h.tr.closed != 3 {
		t.Errorf("closed = %d", h.tr.closed)
	}
}
