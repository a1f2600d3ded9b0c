// Package chat is the Bubble Tea host for one interaction controller.
package chat

import "ragchat/internal/usecase/interaction"

// CompletionMsg carries a finished collaborator request back to the UI loop.
type CompletionMsg struct {
	Done interaction.Completion
}

// QuitMsg signals the program to exit.
type QuitMsg struct{}
