// Package charts renders the three dashboard charts as text. Each chart is a
// widget.Renderer: SetData swaps the dataset and leaves interaction state
// (hidden categories, scroll position, zoom) alone.
package charts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/widget"
)

const noData = "暂无数据"

// StageChart is the stage distribution donut, drawn as a proportional ring
// strip with a legend. Categories can be hidden from the legend.
type StageChart struct {
	data    widget.StageData
	hidden  [widget.StageCount]bool
	version int
}

// NewStageChart builds the chart with its first dataset.
func NewStageChart(d widget.StageData) *StageChart {
	return &StageChart{data: d, version: 1}
}

// SetData implements widget.Renderer.
func (c *StageChart) SetData(d widget.StageData) {
	c.data = d
	c.version++
}

// Data returns the current dataset.
func (c *StageChart) Data() widget.StageData { return c.data }

// Version counts datasets applied, including the initial one.
func (c *StageChart) Version() int { return c.version }

// Toggle hides or shows a category. Out-of-range indexes are ignored.
func (c *StageChart) Toggle(i int) {
	if i < 0 || i >= widget.StageCount {
		return
	}
	c.hidden[i] = !c.hidden[i]
}

// Hidden reports whether category i is hidden.
func (c *StageChart) Hidden(i int) bool {
	return i >= 0 && i < widget.StageCount && c.hidden[i]
}

func (c *StageChart) visibleTotal() int {
	n := 0
	for i, v := range c.data.Values {
		if !c.hidden[i] {
			n += max(v, 0)
		}
	}
	return n
}

// View renders the strip and legend in width columns.
func (c *StageChart) View(width int) string {
	barW := max(width-4, 10)
	total := c.visibleTotal()

	var strip string
	if total == 0 {
		strip = theme.StyleDimmed.Render(strings.Repeat("░", barW))
	} else {
		used := 0
		last := -1
		for i := range c.data.Values {
			if !c.hidden[i] && c.data.Values[i] > 0 {
				last = i
			}
		}
		for i, v := range c.data.Values {
			if c.hidden[i] || v <= 0 {
				continue
			}
			n := v * barW / total
			if i == last {
				n = barW - used
			}
			n = max(n, 0)
			used += n
			strip += lipgloss.NewStyle().Foreground(theme.StageColor(i)).Render(strings.Repeat("█", n))
		}
	}

	lines := []string{strip}
	for i, v := range c.data.Values {
		label := widget.Stage(i).Label()
		swatch := lipgloss.NewStyle().Foreground(theme.StageColor(i)).Render("■")
		if c.hidden[i] {
			lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("□ %d %s  (hidden)", i+1, label)))
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = float64(v) * 100 / float64(total)
		}
		lines = append(lines, fmt.Sprintf("%s %d %s  %d (%.1f%%)", swatch, i+1, label, v, pct))
	}
	if c.data.Total() == 0 {
		lines = append(lines, theme.StyleDimmed.Render(noData))
	}
	return strings.Join(lines, "\n")
}
