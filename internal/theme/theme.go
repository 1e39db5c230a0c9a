// Package theme provides the Lip Gloss color palette and reusable styles
// for the dashboard TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Stage colors, in widget.Stage order.
var (
	ColorReceive   = lipgloss.Color("#f59e0b")
	ColorFormulate = lipgloss.Color("#3b82f6")
	ColorDecoction = lipgloss.Color("#22c55e")
)

// Chart series colors.
var (
	ColorBar   = lipgloss.Color("#06b6d4")
	ColorTrend = lipgloss.Color("#a855f7")
)

// Alert level colors.
var (
	ColorAlertHigh   = lipgloss.Color("#dc2626")
	ColorAlertMedium = lipgloss.Color("#d97706")
	ColorAlertLow    = lipgloss.Color("#2563eb")
)

// Event log kind colors.
var (
	ColorKindWS    = lipgloss.Color("#2563eb")
	ColorKindErr   = lipgloss.Color("#dc2626")
	ColorKindAlert = lipgloss.Color("#d97706")
	ColorKindTask  = lipgloss.Color("#7c3aed")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

var stageColors = []lipgloss.Color{ColorReceive, ColorFormulate, ColorDecoction}

// StageColor returns the donut color for a stage index.
func StageColor(i int) lipgloss.Color {
	if i < 0 || i >= len(stageColors) {
		return ColorDefault
	}
	return stageColors[i]
}

// StageHex returns the same palette as hex strings for image export.
func StageHex(i int) string {
	return string(StageColor(i))
}

// LevelColor returns the accent color for an alert level.
func LevelColor(level string) lipgloss.Color {
	switch level {
	case "high":
		return ColorAlertHigh
	case "medium":
		return ColorAlertMedium
	case "low", "normal":
		return ColorAlertLow
	default:
		return ColorDefault
	}
}

// KindColor returns the event log color for an entry kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "ws":
		return ColorKindWS
	case "err":
		return ColorKindErr
	case "alrt":
		return ColorKindAlert
	case "task":
		return ColorKindTask
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)

// Panel is the bordered box every dashboard widget sits in.
func Panel(title string, width int, body string) string {
	if width < 20 {
		width = 20
	}
	content := lipgloss.JoinVertical(lipgloss.Left, StyleHeader.Render(title), body)
	return StyleBorder.Width(width - 2).Padding(0, 1).Render(content)
}
