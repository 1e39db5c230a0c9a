package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/xinyang20/SDDB/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected  bool
	Spinner    spinner.Model
	LastUpdate string
	Unread     int // -1 until the first fetch
	LastPong   time.Time
	Pings      int
	Width      int
}

// New creates a status bar model.
func New() Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorWarning)
	return Model{Spinner: s, Unread: -1}
}

// View renders the status bar.
func (m Model) View(now time.Time) string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● 已连接")
	} else {
		connStr = m.Spinner.View() + lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(" 连接中...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr

	if m.LastUpdate != "" {
		content += sep + m.LastUpdate
	}

	if m.Unread >= 0 {
		color := theme.ColorDimmed
		if m.Unread > 0 {
			color = theme.ColorWarning
		}
		content += sep + lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("未读告警 %d", m.Unread))
	}

	if !m.LastPong.IsZero() {
		age := now.Sub(m.LastPong).Truncate(time.Second)
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("pong %s ago  pings %d", age, m.Pings))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
