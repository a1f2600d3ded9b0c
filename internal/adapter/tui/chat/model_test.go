package chat

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/adapter/tui/components"
	"ragchat/internal/domain"
	"ragchat/internal/usecase/interaction"
)

type stubCollab struct {
	mu      sync.Mutex
	queries []string
	uploads int
}

func (s *stubCollab) Upload(context.Context, []domain.FileHandle) domain.UploadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	return domain.UploadOutcome{Kind: domain.OutcomeSuccess, Chunks: 4}
}

func (s *stubCollab) Ask(_ context.Context, q string) domain.ChatOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return domain.ChatOutcome{Kind: domain.OutcomeSuccess, Answer: "answer to " + q}
}

func newTestModel(t *testing.T) (Model, *interaction.Controller, *stubCollab) {
	t.Helper()
	sc := &stubCollab{}
	ctrl := interaction.NewController(sc, nil)
	m := NewModel(Deps{Controller: ctrl})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), ctrl, sc
}

// step feeds msg to the model and returns the message produced by the
// resulting command, if any.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next.(Model), nil
	}
	return next.(Model), cmd()
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestEnterSubmitsQuery(t *testing.T) {
	m, ctrl, sc := newTestModel(t)
	m = typeText(t, m, "what is rag")

	m, confirm := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, components.InputConfirmMsg{}, confirm)

	m, done := step(t, m, confirm)
	require.IsType(t, CompletionMsg{}, done)
	assert.Equal(t, "", m.input.Value())
	assert.True(t, ctrl.Snapshot().Typing, "placeholder shown while the request runs")

	_, _ = step(t, m, done)
	entries := ctrl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "what is rag", entries[0].Text)
	assert.NotEmpty(t, entries[1].Blocks)
	assert.Equal(t, []string{"what is rag"}, sc.queries)
}

func TestAltEnterInsertsNewlineWithoutSending(t *testing.T) {
	m, ctrl, sc := newTestModel(t)
	m = typeText(t, m, "line one")

	m, confirm := step(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	require.Equal(t, components.InputConfirmMsg{Value: "line one", Cursor: 8, Modified: true}, confirm)

	m, follow := step(t, m, confirm)
	assert.Nil(t, follow)
	assert.Equal(t, "line one\n", m.input.Value())
	assert.Empty(t, ctrl.Entries())
	assert.Empty(t, sc.queries)

	m = typeText(t, m, "line two")
	m, confirm = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, done := step(t, m, confirm)
	require.NotNil(t, done)
	assert.Equal(t, "line one\nline two", ctrl.Entries()[0].Text)
}

func TestAltEnterBreaksAtCursor(t *testing.T) {
	m, ctrl, sc := newTestModel(t)
	m.input.SetValue("helloworld")
	m.input.Textarea.SetCursor(5)

	m, confirm := step(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	require.Equal(t, components.InputConfirmMsg{Value: "helloworld", Cursor: 5, Modified: true}, confirm)

	m, follow := step(t, m, confirm)
	assert.Nil(t, follow)
	assert.Equal(t, "hello\nworld", m.input.Value())
	assert.Equal(t, "hello\nworld", ctrl.Input())
	assert.Empty(t, sc.queries)
}

func TestDoubleSlashSendsLiteralSlash(t *testing.T) {
	m, ctrl, sc := newTestModel(t)

	m, done := step(t, m, components.InputConfirmMsg{Value: "//etc/hosts format?"})
	require.IsType(t, CompletionMsg{}, done)
	assert.Empty(t, m.chatView.Messages.Notes)

	_, _ = step(t, m, done)
	assert.Equal(t, []string{"/etc/hosts format?"}, sc.queries)
	assert.Equal(t, "/etc/hosts format?", ctrl.Entries()[0].Text)
}

func TestInputDisabledWhileChatInFlight(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = typeText(t, m, "question")
	m, confirm := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, done := step(t, m, confirm)
	require.IsType(t, CompletionMsg{}, done)
	assert.False(t, m.input.Enabled)

	m = typeText(t, m, "ignored")
	assert.Equal(t, "", m.input.Value())

	m, _ = step(t, m, done)
	assert.True(t, m.input.Enabled)
}

func TestEnterOnBlankInputDoesNothing(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = typeText(t, m, "   ")
	m, confirm := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, follow := step(t, m, confirm)
	assert.Nil(t, follow)
	assert.Empty(t, ctrl.Entries())
}

func TestFilesAndUploadCommands(t *testing.T) {
	m, ctrl, sc := newTestModel(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, make([]byte, 3072), 0o600))

	m, _ = step(t, m, components.InputConfirmMsg{Value: "/files " + path})
	assert.Equal(t, []string{"notes.txt (3 KB)"}, ctrl.Snapshot().SelectionLabels)

	m, done := step(t, m, components.InputConfirmMsg{Value: "/upload"})
	require.IsType(t, CompletionMsg{}, done)
	assert.Equal(t, "Uploading...", ctrl.Snapshot().UploadStatus.Text)

	_, _ = step(t, m, done)
	st := ctrl.Snapshot()
	assert.Equal(t, "Processed 4 chunks", st.UploadStatus.Text)
	assert.Equal(t, []string{interaction.NoFilesChosen}, st.SelectionLabels)
	assert.Equal(t, 1, sc.uploads)
}

func TestFilesCommandRejectsUnreadablePath(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	ctrl.OnFileSelectionChanged([]domain.FileHandle{{Name: "keep.pdf"}})

	m, _ = step(t, m, components.InputConfirmMsg{Value: "/files /does/not/exist.pdf"})
	assert.Equal(t, "keep.pdf", ctrl.Snapshot().Selection[0].Name, "selection unchanged")
	require.Len(t, m.chatView.Messages.Notes, 1)
	assert.Contains(t, m.chatView.Messages.Notes[0].Text, "File Not Readable")
	assert.Contains(t, m.chatView.Messages.Notes[0].Text, "cannot read /does/not/exist.pdf")
}

func TestCtrlUWithoutSelectionAddsNote(t *testing.T) {
	m, _, sc := newTestModel(t)
	m, follow := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Nil(t, follow)
	assert.Len(t, m.chatView.Messages.Notes, 1)
	assert.Zero(t, sc.uploads)
}

func TestUnknownCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = step(t, m, components.InputConfirmMsg{Value: "/clear"})
	require.Len(t, m.chatView.Messages.Notes, 1)
	assert.Contains(t, m.chatView.Messages.Notes[0].Text, "Unknown command: /clear")
}

func TestHelpCommandRendersNote(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = step(t, m, components.InputConfirmMsg{Value: "/help"})
	require.Len(t, m.chatView.Messages.Notes, 1)
	assert.Contains(t, m.chatView.Messages.Notes[0].Rendered, "/upload")
}

func TestQuitCommands(t *testing.T) {
	for _, msg := range []tea.Msg{
		components.InputConfirmMsg{Value: "/quit"},
		tea.KeyMsg{Type: tea.KeyCtrlC},
		QuitMsg{},
	} {
		m, _, _ := newTestModel(t)
		next, cmd := m.Update(msg)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, "Goodbye!\n", next.(Model).View())
	}
}

func TestViewShowsUploadPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No files chosen")
}

func TestIsMouseEscapeLeak(t *testing.T) {
	for _, s := range []string{"<65;38;21M", "<0;1;2m", "[M!!", "[65;38;21M"} {
		assert.True(t, isMouseEscapeLeak(s), s)
	}
	for _, s := range []string{"a", "enter", "<abc>", "[65;38;21m", "hello"} {
		assert.False(t, isMouseEscapeLeak(s), s)
	}
}
