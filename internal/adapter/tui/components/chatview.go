package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ragchat/internal/usecase/interaction"
)

// ChatViewModel wraps a viewport with smart auto-scroll behavior.
// Auto-scroll is active while the user is at the bottom; scrolling up
// pauses it until the user returns to the bottom.
type ChatViewModel struct {
	Viewport viewport.Model
	Messages MessageListModel
	ready    bool
	atBottom bool
}

// NewChatView creates a chat view. The viewport is initialized lazily on the first SetSize.
func NewChatView() ChatViewModel {
	return ChatViewModel{
		Messages: NewMessageList(),
		atBottom: true,
	}
}

// SetSize sets the viewport dimensions and triggers content re-render.
func (m *ChatViewModel) SetSize(w, h int) {
	m.Messages.SetWidth(w)
	if !m.ready {
		m.Viewport = viewport.New(w, h)
		m.Viewport.MouseWheelEnabled = true
		m.Viewport.MouseWheelDelta = 3
		m.ready = true
	} else {
		m.Viewport.Width = w
		m.Viewport.Height = h
	}
	m.refresh()
}

// SetEntries shows the controller's current entries.
func (m *ChatViewModel) SetEntries(entries []interaction.Entry) {
	m.Messages.SetEntries(entries)
	m.refresh()
}

// SetTypingFrame updates the placeholder animation frame.
func (m *ChatViewModel) SetTypingFrame(frame string) {
	if m.Messages.TypingFrame == frame {
		return
	}
	m.Messages.TypingFrame = frame
	m.refresh()
}

// AddNote appends a host note after the latest entry.
func (m *ChatViewModel) AddNote(n Note) {
	m.Messages.AddNote(n)
	m.refresh()
}

// Update handles viewport scrolling and tracks auto-scroll state.
func (m ChatViewModel) Update(msg tea.Msg) (ChatViewModel, tea.Cmd) {
	if !m.ready {
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	m.atBottom = m.Viewport.AtBottom()
	return m, cmd
}

// View renders the chat viewport.
func (m ChatViewModel) View() string {
	if !m.ready {
		return "  Initializing..."
	}
	return m.Viewport.View()
}

func (m *ChatViewModel) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.Messages.View())
	if m.atBottom {
		m.Viewport.GotoBottom()
	}
}
