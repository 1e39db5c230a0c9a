// Package notify renders alert notification cards and one-shot notices.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/xinyang20/SDDB/internal/alert"
	"github.com/xinyang20/SDDB/internal/theme"
)

const cardWidth = 36

// Card renders one notification. The focused card gets a thick border.
func Card(n *alert.Notification, focused bool, now time.Time) string {
	a := n.Alert
	color := theme.LevelColor(string(a.Level))
	inner := cardWidth - 4

	level := strings.ToUpper(string(a.Level))
	if level == "" {
		level = "INFO"
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(color).Render("● "+level) +
		" " + theme.StyleHeader.Render(a.Type)

	var meta []string
	if a.AlertID > 0 {
		meta = append(meta, fmt.Sprintf("#%d", a.AlertID))
	}
	if a.TaskID != nil {
		meta = append(meta, fmt.Sprintf("任务 #%d", *a.TaskID))
	}
	if a.WorkerID != nil {
		meta = append(meta, fmt.Sprintf("工人 #%d", *a.WorkerID))
	}
	if a.Timestamp != nil && !a.Timestamp.IsZero() {
		meta = append(meta, a.Timestamp.Local().Format("15:04:05"))
	}
	if left := n.ExpiresAt.Sub(now); left > 0 {
		meta = append(meta, fmt.Sprintf("%ds", int(left.Round(time.Second)/time.Second)))
	}

	lines := []string{header, wordwrap.String(a.Message, inner)}
	if len(meta) > 0 {
		lines = append(lines, theme.StyleDimmed.Render(strings.Join(meta, " · ")))
	}

	border := lipgloss.RoundedBorder()
	if focused {
		border = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Width(cardWidth-2).
		Padding(0, 1).
		BorderStyle(border).
		BorderForeground(color).
		Render(strings.Join(lines, "\n"))
}

// Notice renders a one-shot message that stays until acknowledged.
func Notice(message string, width int) string {
	w := min(max(width/2, 30), 60)
	body := wordwrap.String(message, w-4)
	help := theme.StyleDimmed.Render("enter:确定")
	return lipgloss.NewStyle().
		Width(w-2).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorDanger).
		Render(lipgloss.JoinVertical(lipgloss.Left, theme.StyleHeader.Render("提示"), "", body, "", help))
}

// Stack renders the visible notifications oldest first, right-aligned in
// width columns. focus is the index of the focused card, or -1.
func Stack(ns []*alert.Notification, focus int, width int, now time.Time) string {
	if len(ns) == 0 {
		return ""
	}
	cards := make([]string, len(ns))
	for i, n := range ns {
		cards[i] = Card(n, i == focus, now)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, cards...))
}
