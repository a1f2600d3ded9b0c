package components

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/tui/theme"
)

// CommandDef describes a slash command offered by the completion popup.
type CommandDef struct {
	Name        string // "/files"
	Args        string // "<path>...", shown after the name
	Description string
	Paths       bool // arguments are file paths
}

// Suggestion is one popup row. Value is the whole input after accepting.
type Suggestion struct {
	Label string
	Hint  string
	Value string
}

// AutocompleteModel completes slash command names and, for commands that
// take paths, the path being typed.
type AutocompleteModel struct {
	Commands    []CommandDef
	Suggestions []Suggestion
	Selected    int
	Visible     bool
	maxShow     int
	width       int

	readDir func(string) ([]os.DirEntry, error)
}

const maxPathSuggestions = 50

// NewAutocomplete creates a completion popup for commands.
func NewAutocomplete(commands []CommandDef) AutocompleteModel {
	return AutocompleteModel{
		Commands: commands,
		maxShow:  7,
		readDir:  os.ReadDir,
	}
}

// SetWidth updates the popup width.
func (m *AutocompleteModel) SetWidth(w int) {
	m.width = w
}

// Refresh recomputes suggestions for the current input.
func (m *AutocompleteModel) Refresh(input string) {
	prev := m.Selected
	switch {
	case input == "" || input[0] != '/' || strings.Contains(input, "\n"):
		m.Suggestions = nil
	case !strings.ContainsAny(input, " \t"):
		m.Suggestions = m.commandSuggestions(strings.ToLower(input))
	default:
		m.Suggestions = m.pathSuggestions(input)
	}
	m.Visible = len(m.Suggestions) > 0
	m.Selected = prev
	if m.Selected >= len(m.Suggestions) {
		m.Selected = 0
	}
}

func (m *AutocompleteModel) commandSuggestions(prefix string) []Suggestion {
	var out []Suggestion
	for _, cmd := range m.Commands {
		if strings.HasPrefix(cmd.Name, prefix) {
			out = append(out, Suggestion{
				Label: strings.TrimSpace(cmd.Name + " " + cmd.Args),
				Hint:  cmd.Description,
				Value: cmd.Name + " ",
			})
		}
	}
	return out
}

// pathSuggestions completes the last word of input when the command takes
// paths. Nothing is offered until a word is started, and hidden entries only
// once the word starts with a dot.
func (m *AutocompleteModel) pathSuggestions(input string) []Suggestion {
	name := strings.ToLower(strings.Fields(input)[0])
	if !m.takesPaths(name) || m.readDir == nil {
		return nil
	}

	head, word := input, ""
	if i := strings.LastIndexAny(input, " \t"); i >= 0 {
		head, word = input[:i+1], input[i+1:]
	}
	if word == "" {
		return nil
	}
	dir, base := filepath.Split(word)
	lookIn := dir
	if lookIn == "" {
		lookIn = "."
	}
	entries, err := m.readDir(lookIn)
	if err != nil {
		return nil
	}

	var out []Suggestion
	for _, e := range entries {
		n := e.Name()
		if !strings.HasPrefix(n, base) || (strings.HasPrefix(n, ".") && !strings.HasPrefix(base, ".")) {
			continue
		}
		s := Suggestion{Label: n, Value: head + dir + n + " "}
		if e.IsDir() {
			s.Label += "/"
			s.Hint = "directory"
			s.Value = head + dir + n + "/"
		}
		out = append(out, s)
		if len(out) == maxPathSuggestions {
			break
		}
	}
	return out
}

func (m *AutocompleteModel) takesPaths(name string) bool {
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			return cmd.Paths
		}
	}
	return false
}

// Completes reports whether accepting the selection would change input
// beyond trailing whitespace.
func (m AutocompleteModel) Completes(input string) bool {
	if !m.Visible || len(m.Suggestions) == 0 {
		return false
	}
	return strings.TrimRight(m.Suggestions[m.Selected].Value, " ") != strings.TrimRight(input, " ")
}

// Hide hides the popup.
func (m *AutocompleteModel) Hide() {
	m.Visible = false
	m.Suggestions = nil
	m.Selected = 0
}

// SelectNext moves selection down.
func (m *AutocompleteModel) SelectNext() {
	if n := len(m.Suggestions); n > 0 {
		m.Selected = (m.Selected + 1) % n
	}
}

// SelectPrev moves selection up.
func (m *AutocompleteModel) SelectPrev() {
	if n := len(m.Suggestions); n > 0 {
		m.Selected = (m.Selected - 1 + n) % n
	}
}

// Accept returns the input value for the selected suggestion and hides the
// popup. It returns "" when nothing is selectable.
func (m *AutocompleteModel) Accept() string {
	if len(m.Suggestions) == 0 {
		return ""
	}
	v := m.Suggestions[m.Selected].Value
	m.Hide()
	return v
}

// View renders the popup, scrolled so the selection stays visible.
func (m AutocompleteModel) View() string {
	if !m.Visible || len(m.Suggestions) == 0 {
		return ""
	}

	popupWidth := m.width - 4
	if popupWidth < 30 {
		popupWidth = 30
	}

	first := 0
	if m.Selected >= m.maxShow {
		first = m.Selected - m.maxShow + 1
	}
	last := min(first+m.maxShow, len(m.Suggestions))

	labelW := 0
	for _, s := range m.Suggestions[first:last] {
		labelW = max(labelW, lipgloss.Width(s.Label))
	}

	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		s := m.Suggestions[i]
		row := s.Label + strings.Repeat(" ", labelW-lipgloss.Width(s.Label))
		if s.Hint != "" {
			row += "  " + theme.TextMuted.Render(s.Hint)
		}
		row = truncate(row, popupWidth-2)

		if i == m.Selected {
			row = theme.TextInfo.Render(theme.SymbolArrowR+" ") + row
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorderActive).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
