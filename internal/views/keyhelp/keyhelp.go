// Package keyhelp renders the full key reference overlay as markdown.
package keyhelp

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/xinyang20/SDDB/internal/theme"
)

// Model caches the rendered overlay per width.
type Model struct {
	markdown string
	width    int
	rendered string
}

// New builds the reference from groups of bindings, one table per group.
func New(title string, groups map[string][]key.Binding, order []string) Model {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	for _, name := range order {
		fmt.Fprintf(&b, "\n## %s\n\n| key | action |\n|---|---|\n", name)
		for _, k := range groups[name] {
			h := k.Help()
			fmt.Fprintf(&b, "| %s | %s |\n", h.Key, h.Desc)
		}
	}
	return Model{markdown: b.String()}
}

// Markdown returns the source text.
func (m Model) Markdown() string { return m.markdown }

// View renders the overlay, reusing the last render if width is unchanged.
func (m *Model) View(width int) string {
	innerW := max(width-8, 30)
	if m.rendered == "" || m.width != innerW {
		m.width = innerW
		m.rendered = m.render(innerW)
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(m.rendered + "\n" + theme.StyleDimmed.Render("esc:close"))
}

func (m Model) render(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("help renderer: %v", err)
		return m.markdown
	}
	out, err := r.Render(m.markdown)
	if err != nil {
		log.Printf("render help: %v", err)
		return m.markdown
	}
	return strings.TrimRight(out, "\n")
}
