package charts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/widget"
)

const (
	trendRows = 4
	minWindow = 2
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// TrendChart is the hourly completion line, drawn as a column chart of the
// most recent Window points. A zero window shows every point.
type TrendChart struct {
	data    widget.TrendData
	window  int
	version int
}

// NewTrendChart builds the chart with its first dataset.
func NewTrendChart(d widget.TrendData) *TrendChart {
	return &TrendChart{data: d, version: 1}
}

// SetData implements widget.Renderer.
func (c *TrendChart) SetData(d widget.TrendData) {
	c.data = d
	c.version++
}

// Data returns the current dataset.
func (c *TrendChart) Data() widget.TrendData { return c.data }

// Version counts datasets applied, including the initial one.
func (c *TrendChart) Version() int { return c.version }

// Window returns the zoom window; 0 means all points.
func (c *TrendChart) Window() int { return c.window }

// ZoomIn halves the visible window.
func (c *TrendChart) ZoomIn() {
	n := c.data.Points()
	if c.window == 0 || c.window > n {
		c.window = n
	}
	c.window = max(c.window/2, minWindow)
}

// ZoomOut doubles the visible window until everything fits.
func (c *TrendChart) ZoomOut() {
	if c.window == 0 {
		return
	}
	c.window *= 2
	if c.window >= c.data.Points() {
		c.window = 0
	}
}

// visible returns the index range currently in view.
func (c *TrendChart) visible() (int, int) {
	n := c.data.Points()
	if c.window == 0 || c.window >= n {
		return 0, n
	}
	return n - c.window, n
}

// View renders the columns and an hour axis in width columns.
func (c *TrendChart) View(width int) string {
	start, end := c.visible()
	if end == start {
		return theme.StyleDimmed.Render(noData)
	}

	peak := 0
	for _, v := range c.data.Completed[start:end] {
		peak = max(peak, v)
	}
	colW := max(min((width-2)/(end-start), 4), 1)
	style := lipgloss.NewStyle().Foreground(theme.ColorTrend)

	rows := make([]string, trendRows)
	for r := range rows {
		level := trendRows - 1 - r
		var b strings.Builder
		for _, v := range c.data.Completed[start:end] {
			cell := 0
			if peak > 0 {
				cell = v*trendRows*8/peak - level*8
			}
			cell = max(min(cell, 8), 0)
			b.WriteString(strings.Repeat(string(blocks[cell]), colW))
		}
		rows[r] = style.Render(b.String())
	}

	first, last := c.data.Hours[start], c.data.Hours[end-1]
	axisW := colW * (end - start)
	gap := max(axisW-lipgloss.Width(first)-lipgloss.Width(last), 1)
	axis := theme.StyleDimmed.Render(first + strings.Repeat(" ", gap) + last)

	zoom := "all"
	if c.window > 0 {
		zoom = fmt.Sprintf("last %d", end-start)
	}
	footer := theme.StyleDimmed.Render(fmt.Sprintf("peak %d  window %s  +/-:zoom", peak, zoom))

	return strings.Join(append(rows, axis, footer), "\n")
}
