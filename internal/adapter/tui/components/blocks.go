package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/usecase/markup"
)

// RenderBlocks lays out rendered reply blocks for the terminal. Paragraph
// lines keep their explicit breaks; list items get a bullet or number and a
// hanging indent. Blocks are separated by a blank line.
func RenderBlocks(blocks []markup.Block, width int) string {
	if width < 10 {
		width = 10
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case markup.BlockList:
			parts = append(parts, renderList(b, width))
		default:
			lines := make([]string, len(b.Lines))
			for i, run := range b.Lines {
				lines[i] = wrap(RenderRun(run), width)
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

func renderList(b markup.Block, width int) string {
	markers := make([]string, len(b.Items))
	markerW := 0
	for i := range b.Items {
		if b.Ordered {
			markers[i] = strconv.Itoa(i+1) + "."
		} else {
			markers[i] = theme.SymbolBullet
		}
		if w := lipgloss.Width(markers[i]); w > markerW {
			markerW = w
		}
	}

	items := make([]string, len(b.Items))
	for i, run := range b.Items {
		marker := theme.ListMarker.Width(markerW + 1).Render(markers[i])
		body := wrap(RenderRun(run), width-markerW-1)
		items[i] = lipgloss.JoinHorizontal(lipgloss.Top, marker, body)
	}
	return strings.Join(items, "\n")
}

// RenderRun styles emphasized spans and concatenates the run.
func RenderRun(run markup.InlineRun) string {
	var sb strings.Builder
	for _, s := range run {
		if s.Emphasized {
			sb.WriteString(theme.Emphasis.Render(s.Text))
		} else {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func wrap(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
