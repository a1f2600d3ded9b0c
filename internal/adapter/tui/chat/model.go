package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/adapter/collab"
	"ragchat/internal/adapter/tui/components"
	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/adapter/tui/uxerror"
	"ragchat/internal/usecase/interaction"
)

// Deps are the chat model's collaborators and display settings.
type Deps struct {
	Controller  *interaction.Controller
	Logger      *slog.Logger
	Context     context.Context // base context for requests
	AgentName   string
	Server      string
	MaxMessages int
}

// Model is the root Bubble Tea model for the chat client.
type Model struct {
	deps Deps
	ctrl *interaction.Controller

	chatView    components.ChatViewModel
	input       components.InputAreaModel
	uploadPanel components.UploadPanelModel
	statusBar   components.StatusBarModel
	spinner     spinner.Model

	width    int
	height   int
	quitting bool
}

// NewModel creates the root model around deps.Controller.
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.AgentName == "" {
		deps.AgentName = "Assistant"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	sb := components.NewStatusBar()
	sb.AgentName = deps.AgentName
	sb.Server = deps.Server
	sb.Hints = defaultHints()

	chatView := components.NewChatView()
	chatView.Messages.AgentName = deps.AgentName
	chatView.Messages.MaxMessages = deps.MaxMessages

	input := components.NewInputArea()
	input.Autocomplete = components.NewAutocomplete([]components.CommandDef{
		{Name: "/files", Args: "<path>...", Description: "Choose files to upload", Paths: true},
		{Name: "/upload", Description: "Upload the chosen files"},
		{Name: "/help", Description: "Show commands and keys"},
		{Name: "/quit", Description: "Exit"},
	})

	m := Model{
		deps:      deps,
		ctrl:      deps.Controller,
		chatView:  chatView,
		input:     input,
		statusBar: sb,
		spinner:   s,
	}
	m.sync()
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case components.InputConfirmMsg:
		return m.handleConfirm(msg)

	case CompletionMsg:
		m.ctrl.Resolve(msg.Done)
		m.sync()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.chatView.SetTypingFrame(m.spinner.View())
		m.uploadPanel.SpinnerFrame = m.spinner.View()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the whole client.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 {
		return "  Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.chatView.View(),
		components.Divider(m.width),
		m.uploadPanel.View(),
		components.Divider(m.width),
		m.input.View(),
		m.statusBar.View(),
	)
}

// layout recalculates sizes for all sub-models.
func (m *Model) layout() {
	const inputH, statusH, dividersH = 3, 1, 2
	contentH := m.height - inputH - statusH - dividersH - m.uploadPanel.Height()
	if contentH < 5 {
		contentH = 5
	}
	m.chatView.SetSize(m.width, contentH)
	m.input.SetWidth(m.width)
	m.uploadPanel.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
}

// sync pulls the controller's display state into the sub-models.
func (m *Model) sync() {
	before := m.uploadPanel.Height()
	st := m.ctrl.Snapshot()
	m.uploadPanel.Sync(st)
	m.chatView.SetEntries(m.ctrl.Entries())
	m.input.SetEnabled(!st.ChatInFlight)
	if m.width > 0 && m.uploadPanel.Height() != before {
		m.layout()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isMouseEscapeLeak(msg.String()) {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		// In-flight requests are not cancelled; their completions are
		// simply never delivered.
		m.quitting = true
		return m, tea.Quit

	case tea.KeyCtrlU:
		return m.startUpload()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfirm applies Enter (send) or Alt+Enter (line break).
func (m Model) handleConfirm(msg components.InputConfirmMsg) (tea.Model, tea.Cmd) {
	value := msg.Value
	if !msg.Modified {
		if cmd, args, ok := components.ParseSlashCommand(value); ok {
			m.input.Reset()
			return m.handleSlashCommand(cmd, args)
		}
		value = components.UnescapeSlash(value)
	}

	m.ctrl.SetInput(value)
	if msg.Modified {
		m.ctrl.SetCursor(msg.Cursor)
	}
	req := m.ctrl.Confirm(msg.Modified)
	if msg.Modified {
		// The textarea normally holds the same text already; keep its cursor.
		if m.ctrl.Input() != m.input.Value() {
			m.input.SetValue(m.ctrl.Input())
		}
		return m, nil
	}
	if req == nil {
		return m, nil
	}
	m.input.Reset()
	m.sync()
	return m, runRequestCmd(m.deps.Context, req)
}

func (m Model) startUpload() (tea.Model, tea.Cmd) {
	req := m.ctrl.SubmitUpload()
	if req == nil {
		st := m.ctrl.Snapshot()
		switch {
		case st.UploadInFlight:
			m.chatView.AddNote(components.Note{Text: "An upload is already running."})
		case !m.ctrl.CanUpload():
			m.chatView.AddNote(components.Note{Text: "No files chosen. Use /files <path>... first."})
		}
		return m, nil
	}
	m.sync()
	return m, runRequestCmd(m.deps.Context, req)
}

func (m Model) handleSlashCommand(cmd string, args []string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "/files":
		files, err := collab.StatFiles(args)
		if err != nil {
			m.deps.Logger.Warn("file selection rejected", "error", err)
			m.chatView.AddNote(components.Note{Kind: components.NoteError, Text: uxerror.Humanize(err).Render()})
			return m, nil
		}
		m.ctrl.OnFileSelectionChanged(files)
		m.sync()
		return m, nil

	case "/upload":
		return m.startUpload()

	case "/help":
		m.chatView.AddNote(components.Note{Rendered: renderHelp(components.ContentWidth(m.width))})
		return m, nil

	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.chatView.AddNote(components.Note{
			Kind: components.NoteError,
			Text: fmt.Sprintf("Unknown command: %s. Type /help for available commands, or start with // to send text that begins with /.", cmd),
		})
		return m, nil
	}
}

func defaultHints() []components.KeyHint {
	return []components.KeyHint{
		{Key: "Enter", Desc: "Send"},
		{Key: "Alt+Enter", Desc: "Newline"},
		{Key: "Ctrl+U", Desc: "Upload"},
		{Key: "/help", Desc: "Help"},
		{Key: "Ctrl+C", Desc: "Quit"},
	}
}

// isMouseEscapeLeak detects mouse escape sequences that reach the program
// as key input instead of tea.MouseMsg during fast trackpad scrolling
// (SGR "<65;38;21M", X11 "[M...", URXVT "[65;38;21M").
func isMouseEscapeLeak(s string) bool {
	if len(s) >= 2 && s[0] == '[' && (s[1] == 'M' || s[1] == 'm') {
		return true
	}
	if len(s) < 5 || (s[0] != '<' && s[0] != '[') {
		return false
	}
	last := s[len(s)-1]
	if last != 'M' && (last != 'm' || s[0] != '<') {
		return false
	}
	for _, r := range s[1 : len(s)-1] {
		if r != ';' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
