package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/usecase/interaction"
)

// NoteKind classifies a host-side note.
type NoteKind int

const (
	NoteInfo NoteKind = iota
	NoteError
)

// Note is a host message shown between transcript entries (help text,
// command feedback). Notes never enter the conversation transcript.
type Note struct {
	After    int    // number of transcript entries preceding the note
	Kind     NoteKind
	Text     string // plain text
	Rendered string // pre-rendered text, used instead of Text when set
}

// MessageListModel lays out transcript entries and notes.
type MessageListModel struct {
	Entries     []interaction.Entry
	Notes       []Note
	AgentName   string
	TypingFrame string // current spinner frame for the typing placeholder
	MaxMessages int    // display cap; 0 = unlimited
	width       int
	cache       map[int]string // rendered assistant replies keyed by entry index
}

// NewMessageList creates an empty message list.
func NewMessageList() MessageListModel {
	return MessageListModel{AgentName: "Assistant", cache: map[int]string{}}
}

// SetWidth updates the rendering width and clears cached renders.
func (m *MessageListModel) SetWidth(w int) {
	if w == m.width {
		return
	}
	m.width = w
	m.cache = map[int]string{}
}

// SetEntries replaces the displayed entries. Entries are append-only, so
// cached renders of earlier indexes stay valid.
func (m *MessageListModel) SetEntries(entries []interaction.Entry) {
	m.Entries = entries
}

// AddNote records a note after the current last entry.
func (m *MessageListModel) AddNote(n Note) {
	n.After = m.transcriptLen()
	m.Notes = append(m.Notes, n)
}

func (m *MessageListModel) transcriptLen() int {
	n := len(m.Entries)
	if n > 0 && m.Entries[n-1].Typing {
		n--
	}
	return n
}

// hidden reports how many leading entries are dropped by MaxMessages.
func (m *MessageListModel) hidden() int {
	if m.MaxMessages <= 0 || len(m.Entries) <= m.MaxMessages {
		return 0
	}
	return len(m.Entries) - m.MaxMessages
}

// View renders notes and entries in order.
func (m *MessageListModel) View() string {
	if len(m.Entries) == 0 && len(m.Notes) == 0 {
		return theme.TextMuted.Render("  No messages yet. Select files with /files, then ask a question.")
	}
	width := ContentWidth(m.width)
	skip := m.hidden()

	var parts []string
	if skip > 0 {
		parts = append(parts, theme.TextMuted.Render(fmt.Sprintf("  (%d older messages hidden)", skip)))
	}
	note := 0
	for i := 0; i <= len(m.Entries); i++ {
		for note < len(m.Notes) && m.Notes[note].After <= i {
			parts = append(parts, m.renderNote(m.Notes[note], width))
			note++
		}
		if i == len(m.Entries) {
			break
		}
		if i < skip {
			continue
		}
		parts = append(parts, m.renderEntry(i, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m *MessageListModel) renderEntry(i, width int) string {
	e := m.Entries[i]
	switch {
	case e.Typing:
		frame := m.TypingFrame
		if frame == "" {
			frame = theme.SymbolEllipsis
		}
		return theme.BotLabel.Render(m.AgentName) + "  " + theme.Typing.Render(frame+" typing...")
	case e.Role == interaction.RoleUser:
		return theme.UserLabel.Render(theme.SymbolUser) + "\n" + indent(wrap(e.Text, width-2))
	case e.IsError:
		return theme.ErrorLabel.Render(theme.SymbolError+" "+m.AgentName) + "\n" +
			indent(theme.TextError.Render(wrap(e.Text, width-2)))
	default:
		if m.cache == nil {
			m.cache = map[int]string{}
		}
		body, ok := m.cache[i]
		if !ok {
			body = RenderBlocks(e.Blocks, width-2)
			m.cache[i] = body
		}
		return theme.BotLabel.Render(m.AgentName) + "\n" + indent(body)
	}
}

func (m *MessageListModel) renderNote(n Note, width int) string {
	text := n.Rendered
	if text == "" {
		text = wrap(n.Text, width-2)
	}
	if n.Kind == NoteError {
		return theme.ErrorLabel.Render(theme.SymbolError) + " " + theme.TextError.Render(text)
	}
	return theme.SystemLabel.Render(theme.SymbolInfo) + " " + text
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

// ContentWidth calculates the content width respecting MaxContentWidth.
func ContentWidth(termWidth int) int {
	w := termWidth - 4
	if w > theme.MaxContentWidth {
		w = theme.MaxContentWidth
	}
	if w < 40 {
		w = 40
	}
	return w
}

// Divider renders a horizontal line at the given width.
func Divider(width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorBorder).
		Render(strings.Repeat("─", width))
}
