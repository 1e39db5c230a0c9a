// Package eventlog provides a scrollable overlay of connection, alert and
// task events.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/xinyang20/SDDB/internal/theme"
)

const maxEntries = 200

// Entry kinds, in filter order.
const (
	KindWS    = "ws"
	KindErr   = "err"
	KindAlert = "alrt"
	KindTask  = "task"
)

var kinds = []string{KindWS, KindErr, KindAlert, KindTask}

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds event log state. Offset counts lines up from the newest
// entry that passes the filter.
type Model struct {
	Entries []Entry
	Offset  int
	filter  string
	counts  map[string]int
}

// New creates an empty event log.
func New() Model {
	return Model{counts: make(map[string]int)}
}

// Add appends an entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	m.counts[kind]++
	if len(m.Entries) > maxEntries {
		m.counts[m.Entries[0].Kind]--
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Count returns how many retained entries have the given kind.
func (m Model) Count(kind string) int { return m.counts[kind] }

// Filter returns the kind being shown, or "" for all.
func (m Model) Filter() string { return m.filter }

// CycleFilter steps all → ws → err → alrt → task → all and jumps to the
// newest matching entry.
func (m *Model) CycleFilter() {
	next := ""
	if m.filter == "" {
		next = kinds[0]
	} else {
		for i, k := range kinds {
			if k == m.filter && i+1 < len(kinds) {
				next = kinds[i+1]
			}
		}
	}
	m.filter = next
	m.Offset = 0
}

func (m Model) visible() []Entry {
	if m.filter == "" {
		return m.Entries
	}
	out := make([]Entry, 0, m.counts[m.filter])
	for _, e := range m.Entries {
		if e.Kind == m.filter {
			out = append(out, e)
		}
	}
	return out
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.visible())-1, 0))
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// summary is the per-kind tally, with the active filter highlighted.
func (m Model) summary() string {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		s := fmt.Sprintf("%s %d", k, m.counts[k])
		if k == m.filter {
			s = lipgloss.NewStyle().Foreground(theme.KindColor(k)).Bold(true).Render("[" + s + "]")
		} else {
			s = theme.StyleDimmed.Render(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "  ")
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visibleLines := max(height-7, 3)

	show := "all"
	if m.filter != "" {
		show = m.filter
	}
	title := theme.StyleHeader.Render(" EVENT LOG ") + theme.StyleDimmed.Render("  showing "+show)
	help := theme.StyleDimmed.Render("j/k:scroll  f:filter  esc:close")

	entries := m.visible()
	if len(entries) == 0 {
		msg := "  No events recorded yet."
		if m.filter != "" && len(m.Entries) > 0 {
			msg = fmt.Sprintf("  No %s events.", m.filter)
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, m.summary(), "", theme.StyleDimmed.Render(msg), "", help)
		return panelStyle(innerW).Render(content)
	}

	end := max(len(entries)-m.Offset, 0)
	start := max(end-visibleLines, 0)

	msgW := max(innerW-24, 10)
	var lines []string
	for _, e := range entries[start:end] {
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kindStr := lipgloss.NewStyle().Foreground(theme.KindColor(e.Kind)).Width(4).Render(e.Kind)
		msgStr := truncate.StringWithTail(e.Message, uint(msgW), "...")
		if e.Kind == KindAlert && strings.HasPrefix(e.Message, "[high]") {
			msgStr = lipgloss.NewStyle().Foreground(theme.LevelColor("high")).Render(msgStr)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, kindStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.summary(), body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}
