package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/tui/theme"
)

// KeyHint is one keybinding hint shown in the status bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBarModel renders the bottom bar: key hints on the left, the agent
// name and server on the right.
type StatusBarModel struct {
	Hints     []KeyHint
	AgentName string
	Server    string
	width     int
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth updates the available width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single line.
func (m StatusBarModel) View() string {
	hints := make([]string, 0, len(m.Hints))
	for _, h := range m.Hints {
		hints = append(hints, theme.StatusKey.Render(h.Key)+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	var info []string
	for _, s := range []string{m.AgentName, m.Server} {
		if s != "" {
			info = append(info, s)
		}
	}
	right := theme.TextMuted.Render(strings.Join(info, " "+theme.SymbolBullet+" "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
