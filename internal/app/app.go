package app

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/xinyang20/SDDB/internal/alert"
	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/connection"
	"github.com/xinyang20/SDDB/internal/dispatch"
	"github.com/xinyang20/SDDB/internal/export"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/views/charts"
	"github.com/xinyang20/SDDB/internal/views/counters"
	"github.com/xinyang20/SDDB/internal/views/eventlog"
	"github.com/xinyang20/SDDB/internal/views/keyhelp"
	"github.com/xinyang20/SDDB/internal/views/notify"
	"github.com/xinyang20/SDDB/internal/views/status"
	"github.com/xinyang20/SDDB/internal/widget"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayEventLog
	OverlayHelp
)

// AlertAPI is the REST side of the alert workflow.
type AlertAPI interface {
	GetUnreadAlerts() (*client.UnreadAlerts, error)
	MarkAlertRead(alertID int) (*client.ActionResult, error)
	ResolveAlert(alertID int) (*client.ActionResult, error)
}

// Deps are the collaborators of the root model. Only Transport is required.
type Deps struct {
	Transport    connection.Transport
	API          AlertAPI
	Beeper       alert.Beeper
	Exporter     *export.Exporter
	FormatTime   func(time.Time) string
	Heartbeat    time.Duration
	AlertTimeout time.Duration
}

type unreadMsg struct {
	count int
	err   error
}

type alertAction string

const (
	actionMarkRead alertAction = "mark_read"
	actionResolve  alertAction = "resolve"
)

type alertActionMsg struct {
	id     uuid.UUID
	action alertAction
	result *client.ActionResult
	err    error
}

type exportedMsg struct {
	paths []string
	err   error
}

// Model is the root Bubble Tea model. It is used by pointer because the
// connection manager reports back to it as an Observer.
type Model struct {
	conn     *connection.Manager
	dispatch *dispatch.Dispatcher
	alerts   *alert.Queue
	api      AlertAPI
	exporter *export.Exporter
	now      func() time.Time

	keys    KeyMap
	help    help.Model
	keyhelp keyhelp.Model
	width   int
	height  int
	overlay Overlay

	// Chart renderers, created by the dispatcher's bindings on first data.
	stageChart  *charts.StageChart
	workerChart *charts.WorkerChart
	trendChart  *charts.TrendChart

	// Sub-views.
	counters  counters.Model
	statusBar status.Model
	events    eventlog.Model

	// Pending one-shot notices, oldest first.
	notices []string
	// Index into alerts.Visible(); out of range means the newest.
	focus int
}

// New creates the root model.
func New(d Deps) *Model {
	m := &Model{
		api:       d.API,
		exporter:  d.Exporter,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		counters:  counters.New(),
		statusBar: status.New(),
		events:    eventlog.New(),
		focus:     -1,
	}
	m.keyhelp = keyhelp.New("快捷键", m.keys.groups(), groupOrder)

	m.dispatch = dispatch.New(dispatch.Renderers{
		Stage: func(d widget.StageData) widget.Renderer[widget.StageData] {
			m.stageChart = charts.NewStageChart(d)
			return m.stageChart
		},
		Workers: func(d widget.WorkerData) widget.Renderer[widget.WorkerData] {
			m.workerChart = charts.NewWorkerChart(d)
			return m.workerChart
		},
		Trend: func(d widget.TrendData) widget.Renderer[widget.TrendData] {
			m.trendChart = charts.NewTrendChart(d)
			return m.trendChart
		},
	}, d.FormatTime)

	m.alerts = alert.New(alert.WithTimeout(d.AlertTimeout), alert.WithBeeper(d.Beeper))
	m.conn = connection.NewManager(d.Transport, m.dispatch, m.alerts, m,
		connection.WithHeartbeat(d.Heartbeat))
	return m
}

// Init starts the connection, the heartbeat and the spinner.
func (m *Model) Init() tea.Cmd {
	start, err := m.conn.Start()
	if err != nil {
		log.Printf("start connection: %v", err)
	}
	return tea.Batch(start, m.statusBar.Spinner.Tick)
}

// Notice implements connection.Observer.
func (m *Model) Notice(message string) {
	m.notices = append(m.notices, message)
	m.events.Add("err", message)
}

// StatusChanged implements connection.Observer.
func (m *Model) StatusChanged(s connection.Status) {
	m.statusBar.Connected = s == connection.Connected
}

// Logf implements connection.Observer.
func (m *Model) Logf(kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", kind, msg)
	m.events.Add(kind, msg)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		if m.workerChart != nil {
			m.workerChart.SetRows(m.workerRows())
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case client.Event:
		cmd := m.conn.Handle(msg)
		if _, ok := msg.(client.ConnectMsg); ok {
			cmd = tea.Batch(cmd, m.fetchUnread())
		}
		return m, cmd

	case connection.HeartbeatMsg:
		cmd := m.conn.Heartbeat()
		m.statusBar.Pings = m.conn.Pings()
		return m, cmd

	case connection.AppliedMsg:
		var cmd tea.Cmd
		if msg.Applied.Metrics {
			cmd = m.counters.SetTargets(m.dispatch.Counters.Values())
		}
		if msg.Applied.Timestamp {
			m.statusBar.LastUpdate = m.dispatch.LastUpdate.Text()
		}
		if msg.Applied.Workers && m.workerChart != nil {
			m.workerChart.SetRows(m.workerRows())
		}
		return m, cmd

	case alert.ExpiredMsg:
		m.alerts.Expire(msg.ID)
		return m, nil

	case counters.FrameMsg:
		return m, m.counters.Update(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.statusBar.Spinner, cmd = m.statusBar.Spinner.Update(msg)
		m.statusBar.LastPong = m.conn.LastPong()
		return m, cmd

	case unreadMsg:
		if msg.err != nil {
			m.Logf("err", "fetch unread alerts: %v", msg.err)
			return m, nil
		}
		m.statusBar.Unread = msg.count
		return m, nil

	case alertActionMsg:
		return m, m.handleAlertAction(msg)

	case exportedMsg:
		for _, p := range msg.paths {
			m.Logf("ws", "exported %s", p)
		}
		if msg.err != nil {
			m.Notice("导出失败: " + msg.err.Error())
		} else if len(msg.paths) == 0 {
			m.Logf("err", "nothing to export yet")
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.conn.Stop()
		return tea.Quit
	}

	if len(m.notices) > 0 {
		if key.Matches(msg, m.keys.Acknowledge) || key.Matches(msg, m.keys.Escape) {
			m.notices = m.notices[1:]
		}
		return nil
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape),
			m.overlay == OverlayEventLog && key.Matches(msg, m.keys.EventLog),
			m.overlay == OverlayHelp && key.Matches(msg, m.keys.Help):
			m.overlay = OverlayNone
		case m.overlay == OverlayEventLog && key.Matches(msg, m.keys.Up):
			m.events.ScrollUp(1)
		case m.overlay == OverlayEventLog && key.Matches(msg, m.keys.Down):
			m.events.ScrollDown(1)
		case m.overlay == OverlayEventLog && key.Matches(msg, m.keys.LogFilter):
			m.events.CycleFilter()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Refresh):
		if err := m.conn.RequestUpdate(); err != nil {
			m.Logf("err", "request update: %v", err)
		}

	case key.Matches(msg, m.keys.Dismiss):
		if n := m.focused(); n != nil {
			m.alerts.Dismiss(n.ID)
		}

	case key.Matches(msg, m.keys.NextAlert):
		if count := m.alerts.Len(); count > 0 {
			m.focus = (m.focusIndex() + 1) % count
		}

	case key.Matches(msg, m.keys.MarkRead):
		return m.alertAction(actionMarkRead)

	case key.Matches(msg, m.keys.Resolve):
		return m.alertAction(actionResolve)

	case key.Matches(msg, m.keys.ScrollLeft):
		if m.workerChart != nil {
			m.workerChart.Scroll(-1)
		}

	case key.Matches(msg, m.keys.ScrollRight):
		if m.workerChart != nil {
			m.workerChart.Scroll(1)
		}

	case key.Matches(msg, m.keys.ZoomIn):
		if m.trendChart != nil {
			m.trendChart.ZoomIn()
		}

	case key.Matches(msg, m.keys.ZoomOut):
		if m.trendChart != nil {
			m.trendChart.ZoomOut()
		}

	case key.Matches(msg, m.keys.Stage1):
		m.toggleStage(0)
	case key.Matches(msg, m.keys.Stage2):
		m.toggleStage(1)
	case key.Matches(msg, m.keys.Stage3):
		m.toggleStage(2)

	case key.Matches(msg, m.keys.Export):
		return m.export()

	case key.Matches(msg, m.keys.EventLog):
		m.overlay = OverlayEventLog

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
	}

	return nil
}

func (m *Model) toggleStage(i int) {
	if m.stageChart != nil {
		m.stageChart.Toggle(i)
	}
}

func (m *Model) focusIndex() int {
	count := m.alerts.Len()
	if m.focus < 0 || m.focus >= count {
		return count - 1
	}
	return m.focus
}

// focused returns the notification the alert keys act on, or nil.
func (m *Model) focused() *alert.Notification {
	vis := m.alerts.Visible()
	if len(vis) == 0 {
		return nil
	}
	return vis[m.focusIndex()]
}

func (m *Model) fetchUnread() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api := m.api
	return func() tea.Msg {
		res, err := api.GetUnreadAlerts()
		if err != nil {
			return unreadMsg{err: err}
		}
		count := res.Count
		if count == 0 {
			count = len(res.Alerts)
		}
		return unreadMsg{count: count}
	}
}

func (m *Model) alertAction(action alertAction) tea.Cmd {
	n := m.focused()
	if n == nil {
		return nil
	}
	if m.api == nil {
		m.Logf("err", "alert API not configured")
		return nil
	}
	if n.Alert.AlertID == 0 {
		m.Logf("err", "alert %q has no server id", n.Alert.Type)
		return nil
	}

	api, id, alertID := m.api, n.ID, n.Alert.AlertID
	return func() tea.Msg {
		var res *client.ActionResult
		var err error
		if action == actionResolve {
			res, err = api.ResolveAlert(alertID)
		} else {
			res, err = api.MarkAlertRead(alertID)
		}
		return alertActionMsg{id: id, action: action, result: res, err: err}
	}
}

func (m *Model) handleAlertAction(msg alertActionMsg) tea.Cmd {
	if msg.err != nil {
		m.Logf("err", "%s: %v", msg.action, msg.err)
		return nil
	}
	if msg.result != nil && !msg.result.Success {
		m.Logf("err", "%s: %s", msg.action, msg.result.Message)
		return nil
	}
	m.Logf("alrt", "%s ok", msg.action)
	m.alerts.Dismiss(msg.id)
	return m.fetchUnread()
}

func (m *Model) export() tea.Cmd {
	if m.exporter == nil {
		m.Logf("err", "export directory not configured")
		return nil
	}
	var ds export.Datasets
	if d, ok := m.dispatch.Stage.Data(); ok {
		ds.Stage = &d
	}
	if d, ok := m.dispatch.Workers.Data(); ok {
		ds.Workers = &d
	}
	if d, ok := m.dispatch.Trend.Data(); ok {
		ds.Trend = &d
	}
	e := m.exporter
	return func() tea.Msg {
		paths, err := e.All(ds)
		return exportedMsg{paths: paths, err: err}
	}
}

func (m *Model) workerRows() int {
	return max((m.height-22)/2, 3)
}

// View renders the full TUI.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	now := m.now()

	sections := []string{m.statusBar.View(now)}
	for _, n := range m.notices[:min(len(m.notices), 1)] {
		sections = append(sections, notify.Notice(n, m.width))
	}

	switch m.overlay {
	case OverlayEventLog:
		sections = append(sections, m.events.View(m.width, m.height-4))
	case OverlayHelp:
		sections = append(sections, m.keyhelp.View(m.width))
	default:
		sections = append(sections, m.renderDashboard())
		if stack := notify.Stack(m.alerts.Visible(), m.focusIndex(), m.width, now); stack != "" {
			sections = append(sections, stack)
		}
	}

	sections = append(sections, theme.StyleDimmed.Render("  "+m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderDashboard() string {
	half := max(m.width/2, 30)
	waiting := theme.StyleDimmed.Render("等待数据...")

	stage, workers, trend := waiting, waiting, waiting
	if m.stageChart != nil {
		stage = m.stageChart.View(half - 4)
	}
	if m.workerChart != nil {
		workers = m.workerChart.View(half - 4)
	}
	if m.trendChart != nil {
		trend = m.trendChart.View(m.width - 4)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Panel("处方阶段分布", half, stage),
		theme.Panel("工人效率", half, workers),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.counters.View(m.width),
		top,
		theme.Panel("今日每小时完成", m.width, trend),
	)
}
