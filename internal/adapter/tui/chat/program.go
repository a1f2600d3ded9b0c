package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen client and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, deps Deps) error {
	if deps.Context == nil {
		deps.Context = ctx
	}
	program := tea.NewProgram(
		NewModel(deps),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	stop := context.AfterFunc(ctx, func() {
		program.Send(QuitMsg{})
	})
	defer stop()

	_, err := program.Run()
	return err
}
