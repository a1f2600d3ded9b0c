package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/tui/theme"
)

// InputConfirmMsg is sent on the confirmation gesture. Modified is true
// when Alt was held: the host then inserts a line break at Cursor, a byte
// offset into Value, instead of sending.
type InputConfirmMsg struct {
	Value    string
	Cursor   int
	Modified bool
}

// insertionPoint is the byte offset where after diverges from before.
func insertionPoint(before, after string) int {
	i := 0
	for i < len(before) && i < len(after) && before[i] == after[i] {
		i++
	}
	return i
}

// InputAreaModel wraps a textarea with slash-command and path completion
// and the Enter / Alt+Enter gesture.
type InputAreaModel struct {
	Textarea     textarea.Model
	Autocomplete AutocompleteModel
	Enabled      bool
	width        int
}

// NewInputArea creates an input area with sensible defaults.
func NewInputArea() InputAreaModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = theme.InputPrompt
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.Focus()

	return InputAreaModel{
		Textarea: ta,
		Enabled:  true,
	}
}

// SetWidth updates the textarea width.
func (m *InputAreaModel) SetWidth(w int) {
	m.width = w
	m.Textarea.SetWidth(w - 2)
	m.Autocomplete.SetWidth(w)
}

// SetEnabled enables or disables input.
func (m *InputAreaModel) SetEnabled(enabled bool) {
	m.Enabled = enabled
	if enabled {
		m.Textarea.Focus()
	} else {
		m.Textarea.Blur()
	}
}

// Reset clears the input.
func (m *InputAreaModel) Reset() {
	m.Textarea.Reset()
	m.Autocomplete.Hide()
}

// SetValue replaces the text and moves the cursor to the end.
func (m *InputAreaModel) SetValue(s string) {
	m.Textarea.SetValue(s)
	m.Textarea.CursorEnd()
}

// Value returns the current input text.
func (m InputAreaModel) Value() string {
	return m.Textarea.Value()
}

// ParseSlashCommand extracts command and args from slash command input.
// Input starting with "//" is an escaped slash, not a command.
func ParseSlashCommand(input string) (cmd string, args []string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") {
		return "", nil, false
	}
	parts := strings.Fields(input)
	return strings.ToLower(parts[0]), parts[1:], true
}

// UnescapeSlash turns a leading "//" into a literal "/".
func UnescapeSlash(input string) string {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "//") {
		return input
	}
	return trimmed[1:]
}

// Update handles key events. Enter and Alt+Enter both produce an
// InputConfirmMsg; the textarea itself never sees Enter.
func (m InputAreaModel) Update(msg tea.Msg) (InputAreaModel, tea.Cmd) {
	if !m.Enabled {
		return m, nil
	}
	if _, ok := msg.(tea.MouseMsg); ok {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.Autocomplete.Visible {
			switch keyMsg.Type {
			case tea.KeyTab, tea.KeyDown:
				m.Autocomplete.SelectNext()
				return m, nil
			case tea.KeyShiftTab, tea.KeyUp:
				m.Autocomplete.SelectPrev()
				return m, nil
			case tea.KeyEnter:
				// A value that is already complete confirms instead.
				if keyMsg.Alt || !m.Autocomplete.Completes(m.Textarea.Value()) {
					m.Autocomplete.Hide()
					break
				}
				if accepted := m.Autocomplete.Accept(); accepted != "" {
					m.SetValue(accepted)
				}
				return m, nil
			case tea.KeyEsc:
				m.Autocomplete.Hide()
				return m, nil
			}
		}

		if keyMsg.Type == tea.KeyEnter {
			confirm := InputConfirmMsg{Value: m.Textarea.Value(), Modified: keyMsg.Alt}
			if keyMsg.Alt {
				m.Textarea.InsertString("\n")
				confirm.Cursor = insertionPoint(confirm.Value, m.Textarea.Value())
			}
			return m, func() tea.Msg { return confirm }
		}
	}

	var cmd tea.Cmd
	m.Textarea, cmd = m.Textarea.Update(msg)

	m.Autocomplete.Refresh(m.Textarea.Value())

	return m, cmd
}

// View renders the input area with the autocomplete popup above it.
func (m InputAreaModel) View() string {
	if popup := m.Autocomplete.View(); popup != "" {
		return popup + "\n" + m.Textarea.View()
	}
	return m.Textarea.View()
}
