package charts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/widget"
)

const (
	defaultWorkerRows = 8
	workerLabelWidth  = 10
)

// WorkerChart is the worker efficiency bar chart. Only Rows bars are shown
// at once; the scroll offset survives dataset replacement.
type WorkerChart struct {
	data    widget.WorkerData
	offset  int
	rows    int
	version int
}

// NewWorkerChart builds the chart with its first dataset.
func NewWorkerChart(d widget.WorkerData) *WorkerChart {
	return &WorkerChart{data: d, rows: defaultWorkerRows, version: 1}
}

// SetData implements widget.Renderer.
func (c *WorkerChart) SetData(d widget.WorkerData) {
	c.data = d
	c.version++
	c.clamp()
}

// Data returns the current dataset.
func (c *WorkerChart) Data() widget.WorkerData { return c.data }

// Version counts datasets applied, including the initial one.
func (c *WorkerChart) Version() int { return c.version }

// SetRows changes how many bars are visible.
func (c *WorkerChart) SetRows(n int) {
	if n > 0 {
		c.rows = n
		c.clamp()
	}
}

// Offset returns the index of the first visible bar.
func (c *WorkerChart) Offset() int { return c.offset }

// Scroll moves the window by n bars.
func (c *WorkerChart) Scroll(n int) {
	c.offset += n
	c.clamp()
}

func (c *WorkerChart) clamp() {
	c.offset = min(c.offset, c.data.Len()-c.rows)
	c.offset = max(c.offset, 0)
}

// View renders the visible bars in width columns.
func (c *WorkerChart) View(width int) string {
	if c.data.Len() == 0 {
		return theme.StyleDimmed.Render(noData)
	}

	peak := 0
	for _, v := range c.data.Values {
		peak = max(peak, v)
	}
	countW := len(fmt.Sprint(peak))
	barW := max(width-workerLabelWidth-countW-4, 5)
	bar := lipgloss.NewStyle().Foreground(theme.ColorBar)
	labelStyle := lipgloss.NewStyle().Width(workerLabelWidth)

	end := min(c.offset+c.rows, c.data.Len())
	lines := make([]string, 0, end-c.offset+1)
	for i := c.offset; i < end; i++ {
		label := c.data.Labels[i]
		if label == "" {
			label = "-"
		}
		label = truncate.StringWithTail(label, workerLabelWidth, "…")

		n := 0
		if peak > 0 {
			n = c.data.Values[i] * barW / peak
		}
		if n == 0 && c.data.Values[i] > 0 {
			n = 1
		}
		n = max(min(n, barW), 0)
		lines = append(lines, fmt.Sprintf("%s %s %*d",
			labelStyle.Render(label),
			bar.Render(strings.Repeat("█", n))+strings.Repeat(" ", barW-n),
			countW, c.data.Values[i]))
	}

	if c.data.Len() > c.rows {
		lines = append(lines, theme.StyleDimmed.Render(
			fmt.Sprintf("%d-%d / %d  h/l:scroll", c.offset+1, end, c.data.Len())))
	}
	return strings.Join(lines, "\n")
}
