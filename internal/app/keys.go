package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Quit        key.Binding
	Dismiss     key.Binding
	NextAlert   key.Binding
	MarkRead    key.Binding
	Resolve     key.Binding
	Acknowledge key.Binding
	Refresh     key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Stage1      key.Binding
	Stage2      key.Binding
	Stage3      key.Binding
	Export      key.Binding
	EventLog    key.Binding
	LogFilter   key.Binding
	Help        key.Binding
	Escape      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss alert"),
		),
		NextAlert: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next alert"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		Resolve: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "resolve"),
		),
		Acknowledge: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "acknowledge notice"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "request update"),
		),
		ScrollLeft: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "workers up"),
		),
		ScrollRight: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "workers down"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom trend in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom trend out"),
		),
		Stage1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle 待收方"),
		),
		Stage2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle 待配方"),
		),
		Stage3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle 待煎药"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export charts"),
		),
		EventLog: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "event log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		LogFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter event log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Dismiss, k.NextAlert, k.Export, k.EventLog, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	groups := k.groups()
	out := make([][]key.Binding, 0, len(groupOrder))
	for _, name := range groupOrder {
		out = append(out, groups[name])
	}
	return out
}

var groupOrder = []string{"Dashboard", "Charts", "Alerts", "Overlays"}

func (k KeyMap) groups() map[string][]key.Binding {
	return map[string][]key.Binding{
		"Dashboard": {k.Refresh, k.Export, k.Quit},
		"Charts":    {k.Stage1, k.Stage2, k.Stage3, k.ScrollLeft, k.ScrollRight, k.ZoomIn, k.ZoomOut},
		"Alerts":    {k.NextAlert, k.Dismiss, k.MarkRead, k.Resolve, k.Acknowledge},
		"Overlays":  {k.EventLog, k.LogFilter, k.Help, k.Up, k.Down, k.Escape},
	}
}
