// Package counters renders the four scalar metrics. Displayed values roll
// toward their targets on a critically damped spring.
package counters

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/widget"
)

const fps = 30

// FrameMsg advances the animation by one frame.
type FrameMsg struct{}

// Model holds the animated counter state.
type Model struct {
	spring    harmonica.Spring
	pos       [widget.CounterCount]float64
	vel       [widget.CounterCount]float64
	target    [widget.CounterCount]float64
	animating bool
}

// New creates counters at 0.
func New() Model {
	return Model{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// SetTargets points the counters at new values and starts the animation if
// it is not already running.
func (m *Model) SetTargets(v [widget.CounterCount]int) tea.Cmd {
	for i := range v {
		m.target[i] = float64(v[i])
	}
	if m.animating || m.settled() {
		return nil
	}
	m.animating = true
	return frame()
}

// Update steps every spring once and keeps ticking until all have settled.
func (m *Model) Update(FrameMsg) tea.Cmd {
	for i := range m.pos {
		m.pos[i], m.vel[i] = m.spring.Update(m.pos[i], m.vel[i], m.target[i])
	}
	if m.settled() {
		m.pos = m.target
		m.vel = [widget.CounterCount]float64{}
		m.animating = false
		return nil
	}
	return frame()
}

func (m *Model) settled() bool {
	for i := range m.pos {
		if math.Abs(m.target[i]-m.pos[i]) >= 0.5 || math.Abs(m.vel[i]) >= 0.5 {
			return false
		}
	}
	return true
}

// Animating reports whether frames are still being scheduled.
func (m Model) Animating() bool { return m.animating }

// Display returns the value currently shown for k.
func (m Model) Display(k widget.Counter) int {
	if k < 0 || int(k) >= widget.CounterCount {
		return 0
	}
	return int(math.Round(m.pos[k]))
}

// View renders the counters as a row of cards.
func (m Model) View(width int) string {
	cardW := max(width/widget.CounterCount-2, 12)
	card := theme.StyleBorder.Width(cardW).Align(lipgloss.Center)
	value := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright)

	cards := make([]string, widget.CounterCount)
	for i := range cards {
		k := widget.Counter(i)
		cards[i] = card.Render(strings.Join([]string{
			theme.StyleDimmed.Render(k.Label()),
			value.Render(fmt.Sprint(m.Display(k))),
		}, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
