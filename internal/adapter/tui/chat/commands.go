package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ragchat/internal/usecase/interaction"
)

// runRequestCmd runs a controller request on a command goroutine. The
// request only produces a value; the controller is touched again when the
// CompletionMsg reaches Update. A nil request yields a nil Cmd.
func runRequestCmd(ctx context.Context, req interaction.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	return func() tea.Msg {
		return CompletionMsg{Done: req(ctx)}
	}
}
